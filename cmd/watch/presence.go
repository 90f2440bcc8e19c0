package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
)

var presenceCmd = &cobra.Command{
	Use:   "presence WORKSPACE_ID",
	Short: "List the users currently active in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		baseURL, sessionID, err := resolveSession(ctx, cmd)
		if err != nil {
			return err
		}

		endpoint := baseURL + "/api/v1/workspaces/" + url.PathEscape(args[0]) + "/presence"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("building presence request: %w", err)
		}
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sessionID})

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching presence: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("presence request failed with status %d", resp.StatusCode)
		}

		var body dto.ActiveUsersResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decoding presence response: %w", err)
		}

		if len(body.ActiveUsers) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no active users")
			return nil
		}
		for _, u := range body.ActiveUsers {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}
