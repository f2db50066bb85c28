package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon liveness and summary",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx := context.Background()

		if !c.Ping(ctx) {
			fmt.Fprintf(os.Stderr, "Daemon at %s is not responding.\n", cfg.BaseURL())
			os.Exit(1)
		}

		st := c.Status(ctx)
		if st == nil {
			fmt.Printf("Daemon at %s is alive (status unavailable).\n", cfg.BaseURL())
			return
		}
		fmt.Printf("Daemon:    %s\n", cfg.BaseURL())
		fmt.Printf("Version:   %s\n", st.Version)
		fmt.Printf("Active:    %d downloads\n", st.ActiveDownloads)
		fmt.Printf("Queues:    %d\n", st.QueueCount)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
