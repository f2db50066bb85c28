package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riptide-dl/riptide/internal/client"
)

var addCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Submit downloads to the daemon",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename, _ := cmd.Flags().GetString("filename")
		dest, _ := cmd.Flags().GetString("dest")
		queueID, _ := cmd.Flags().GetString("queue")

		c := newClient()
		ctx := context.Background()

		failed := 0
		for _, url := range args {
			d, err := c.AddDownload(ctx, client.AddRequest{
				URL:         url,
				Filename:    filename,
				Destination: dest,
				QueueID:     queueID,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error adding %s: %v\n", url, err)
				failed++
				continue
			}
			name := d.Filename
			if name == "" {
				name = d.URL
			}
			fmt.Printf("Queued: %s [%s]\n", name, shortID(d.ID))
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("filename", "f", "", "Override the target filename (single URL only)")
	addCmd.Flags().StringP("dest", "d", "", "Destination directory on the daemon host")
	addCmd.Flags().StringP("queue", "q", "", "Queue to place the download in")
}
