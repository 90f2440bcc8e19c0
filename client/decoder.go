package client

import (
	"bufio"
	"io"
	"strings"
)

const maxFrameSize = 1 << 20

// decoder reads the data payloads of an event stream. Only the data field
// is used by the server; other fields and comment lines are skipped.
type decoder struct {
	scanner *bufio.Scanner
}

func newDecoder(r io.Reader) *decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxFrameSize)
	return &decoder{scanner: s}
}

// Next returns the payload of the next complete frame. Multiple data lines
// in one frame are joined with a newline. It returns io.EOF once the stream
// ends, discarding any unterminated frame.
func (d *decoder) Next() (string, error) {
	var (
		lines   []string
		hasData bool
	)
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if hasData {
				return strings.Join(lines, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field != "data" {
			continue
		}
		lines = append(lines, value)
		hasData = true
	}
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
