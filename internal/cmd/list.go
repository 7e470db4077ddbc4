package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups",
	RunE:  runList,
}

var listMax int

func init() {
	listCmd.Flags().IntVar(&listMax, "max", 100, "maximum number of backups to list (1-200)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	items, err := newProxyClient().ListBackups(cmd.Context(), listMax)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no backups stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUPLOADED\tSIZE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.Name, item.UploadedAt, formatBytes(item.SizeBytes))
	}
	return w.Flush()
}
