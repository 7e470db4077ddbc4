package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/savevault/savevault/internal/archive"
)

var backupCmd = &cobra.Command{
	Use:   "backup <dir>",
	Short: "Archive a folder and upload it",
	Long: `Archive a folder into a zip and upload it through the backend's
one-shot upload target.

Examples:
  savevault backup ~/saves/elden-ring --label "Elden Ring"
  savevault backup ./world --exclude "**/*.log" --exclude "cache/**"`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

var (
	backupLabel    string
	backupExcludes []string
)

func init() {
	backupCmd.Flags().StringVar(&backupLabel, "label", "", "label embedded in the archive name")
	backupCmd.Flags().StringArrayVar(&backupExcludes, "exclude", nil,
		"glob of files to skip, relative to <dir> (repeatable)")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	sel, err := archive.Collect(args[0], backupExcludes)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d files, %s\n", sel.FolderName, len(sel.Entries), formatBytes(sel.TotalBytes))

	pipeline := archive.New(newProxyClient(), backupLabel,
		archive.WithProgress(func(pct int) {
			fmt.Printf("\r%3d%%", pct)
		}),
		archive.WithLogger(func(format string, a ...any) {
			fmt.Printf("\r"+format+"\n", a...)
		}),
	)

	name, err := pipeline.Run(cmd.Context(), sel)
	if err != nil {
		return err
	}
	fmt.Printf("stored as %s\n", name)
	return nil
}

// formatBytes renders a byte count for humans.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}
