package client_test

import (
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/client"
)

var _ = Describe("frame decoding", func() {
	It("returns data payloads and skips comments and other fields", func() {
		next := client.Frames(strings.NewReader(
			": comment\n" +
				"data: {\"type\":\"connected\"}\n\n" +
				"event: ignored\n" +
				"data: line one\n" +
				"data: line two\n\n" +
				"\n\n" +
				"data:no-space\n\n",
		))

		Expect(next()).To(Equal(`{"type":"connected"}`))
		Expect(next()).To(Equal("line one\nline two"))
		Expect(next()).To(Equal("no-space"))

		_, err := next()
		Expect(err).To(MatchError(io.EOF))
	})

	It("discards an unterminated trailing frame", func() {
		next := client.Frames(strings.NewReader("data: partial"))

		_, err := next()
		Expect(err).To(MatchError(io.EOF))
	})

	It("reassembles frames split across reads", func() {
		r := io.MultiReader(
			strings.NewReader("da"),
			strings.NewReader("ta: {\"a\":1}\n"),
			strings.NewReader("\n"),
		)
		next := client.Frames(r)

		Expect(next()).To(Equal(`{"a":1}`))
	})
})
