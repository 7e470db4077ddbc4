// Package cmd wires the savevault command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/savevault/savevault/internal/api"
	"github.com/savevault/savevault/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "savevault",
	Short: "Folder backups into a private object-storage bucket",
	Long: `savevault archives folders into zip files stored in a private
object-storage bucket, and serves the thin backend the archival client and
the web UI talk to.

The backend brokers upload targets, listings and downloads; archive bytes
are pushed to the storage provider directly, never through the backend.`,
	SilenceUsage: true,
}

var (
	rootServerURL string
	rootToken     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootServerURL, "server", "",
		"backend base URL (env: SAVEVAULT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&rootToken, "token", "",
		"shared secret sent as X-SaveVault-Token (env: APP_TOKEN)")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// newProxyClient builds the API client for the client-side commands,
// preferring flags over environment configuration.
func newProxyClient() api.Client {
	cfg := config.Load()

	serverURL := rootServerURL
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}
	token := rootToken
	if token == "" {
		token = cfg.AppToken
	}

	return api.NewHTTPClient(serverURL, token)
}
