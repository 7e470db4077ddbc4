package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <name>",
	Short: "Download one stored backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

var fetchOutput string

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "",
		"output path (defaults to the archive's base name)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	name := args[0]

	body, err := newProxyClient().Download(cmd.Context(), name)
	if err != nil {
		return err
	}
	defer body.Close()

	out := fetchOutput
	if out == "" {
		out = filepath.Base(name)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", out, formatBytes(n))
	return nil
}
