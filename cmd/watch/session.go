package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// setupLogging sends logs to stderr so stdout carries only stream output.
func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logger.NewTraceHandler(handler)))
}

// resolveSession returns the server URL and a session id, logging in with
// --email when no --session was given.
func resolveSession(ctx context.Context, cmd *cobra.Command) (string, string, error) {
	baseURL, _ := cmd.Flags().GetString("url")
	sessionID, _ := cmd.Flags().GetString("session")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	baseURL = strings.TrimRight(baseURL, "/")
	if sessionID != "" {
		return baseURL, sessionID, nil
	}
	if email == "" {
		return "", "", errors.New("either --session or --email is required")
	}
	if password == "" {
		password = os.Getenv("SAATHI_PASSWORD")
	}

	sessionID, err := login(ctx, baseURL, email, password)
	if err != nil {
		return "", "", err
	}
	slog.DebugContext(ctx, "logged in", "email", email)
	return baseURL, sessionID, nil
}

func login(ctx context.Context, baseURL, email, password string) (string, error) {
	body, err := json.Marshal(dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value, nil
		}
	}
	return "", errors.New("login response carried no session cookie")
}
