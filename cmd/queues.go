package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "List download queues",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		queues := c.ListQueues(context.Background())
		if len(queues) == 0 {
			fmt.Println("No queues.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMAX CONCURRENT")
		for _, q := range queues {
			fmt.Fprintf(w, "%s\t%s\t%d\n", q.ID, q.Name, q.MaxConcurrent)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(queuesCmd)
}
