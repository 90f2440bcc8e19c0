package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Falcon-J/saathi/core/config"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "saathi-watch",
	Short: "Follow a workspace's realtime stream from the terminal",
	Long: `saathi-watch subscribes to a workspace's realtime stream and prints every
message it receives as one JSON line on stdout. The subscription reconnects
on its own when the server or network drops it.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.ServiceTypeWatch)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("saathi-watch version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Base URL of the saathi server")
	rootCmd.PersistentFlags().String("session", "", "Session id (value of the auth-session cookie)")
	rootCmd.PersistentFlags().String("email", "", "Log in with this email when no session is given")
	rootCmd.PersistentFlags().String("password", "", "Password for --email (or SAATHI_PASSWORD)")

	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(presenceCmd)
}
