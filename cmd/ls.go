package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/riptide-dl/riptide/internal/model"
	"github.com/riptide-dl/riptide/internal/store"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List downloads",
	Long:  `List the daemon's downloads, optionally filtered, searched and sorted.`,
	Run: func(cmd *cobra.Command, args []string) {
		filter, _ := cmd.Flags().GetString("filter")
		query, _ := cmd.Flags().GetString("query")
		sortBy, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")

		c := newClient()
		s := store.New()
		for _, d := range c.ListDownloads(context.Background()) {
			s.AddOrReplace(d)
		}

		view := s.FilteredSorted(
			store.Filter(filter), query,
			store.SortField(sortBy), store.SortOrder(order),
		)
		if len(view) == 0 {
			fmt.Println("No downloads.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tSIZE\tSPEED\tNAME")
		for i := range view {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				shortID(view[i].ID),
				view[i].Status,
				formatProgress(&view[i]),
				formatSize(view[i].Size),
				formatSpeed(view[i].Speed),
				view[i].Filename,
			)
		}
		_ = w.Flush()
	},
}

func formatProgress(d *model.Download) string {
	if d.Size <= 0 {
		return humanize.Bytes(uint64(d.Downloaded))
	}
	return fmt.Sprintf("%.1f%%", d.Progress()*100)
}

func formatSize(size int64) string {
	if size <= 0 {
		return "?"
	}
	return humanize.Bytes(uint64(size))
}

func formatSpeed(speed float64) string {
	if speed <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(speed)) + "/s"
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().String("filter", "all", "Filter: all, active, completed, failed, queued, paused")
	lsCmd.Flags().String("query", "", "Match filename or URL (case-insensitive substring)")
	lsCmd.Flags().String("sort", "created", "Sort field: name, size, progress, created, status")
	lsCmd.Flags().String("order", "asc", "Sort order: asc, desc")
}
