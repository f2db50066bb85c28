package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <ID>",
	Short: "Cancel a download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx := context.Background()

		id, err := resolveDownloadID(ctx, c, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := c.Cancel(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cancelled download %s\n", shortID(id))
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
