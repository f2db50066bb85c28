package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/riptide-dl/riptide/internal/model"
	"github.com/riptide-dl/riptide/internal/store"
	rsync "github.com/riptide-dl/riptide/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live download progress from the daemon",
	Long:  `Watch connects to the daemon's event stream and prints a periodically refreshed summary of all downloads until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		filter, _ := cmd.Flags().GetString("filter")
		interval, _ := cmd.Flags().GetDuration("interval")

		locked, err := acquireWatchLock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error acquiring lock: %v\n", err)
			os.Exit(1)
		}
		if !locked {
			fmt.Fprintln(os.Stderr, "Error: another riptide watch session is already running.")
			os.Exit(1)
		}
		defer func() {
			if err := releaseWatchLock(); err != nil {
				logger.Debug().Err(err).Msg("error releasing watch lock")
			}
		}()

		s := store.New()
		s.SetFilter(store.Filter(filter))

		sess := rsync.New(newClient(), s, logger)
		defer sess.Close()

		if !sess.Connect(context.Background()) {
			fmt.Fprintf(os.Stderr, "Could not connect to daemon at %s.\n", cfg.BaseURL())
			os.Exit(1)
		}
		fmt.Printf("Connected to %s. Press Ctrl+C to stop.\n", cfg.BaseURL())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-sigCh:
				fmt.Println("\nDisconnecting.")
				return
			case <-ticker.C:
				printSummary(s)
			}
		}
	},
}

func printSummary(s *store.Store) {
	view := s.View()

	var active, done, failed int
	for i := range view {
		switch view[i].Status {
		case model.StatusDownloading:
			active++
		case model.StatusCompleted:
			done++
		case model.StatusFailed:
			failed++
		}
	}

	fmt.Printf("--- %s  %d downloads (%d active, %d completed, %d failed)\n",
		time.Now().Format("15:04:05"), len(view), active, done, failed)
	for i := range view {
		d := &view[i]
		if d.Status != model.StatusDownloading {
			continue
		}
		fmt.Printf("  %s  %-40s %s of %s  %s  eta %s\n",
			shortID(d.ID),
			truncate(d.Filename, 40),
			humanize.Bytes(uint64(d.Downloaded)),
			formatSize(d.Size),
			formatSpeed(d.Speed),
			formatETA(d.ETA),
		)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatETA(eta int64) string {
	if eta <= 0 {
		return "?"
	}
	return (time.Duration(eta) * time.Second).String()
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("filter", "all", "Filter: all, active, completed, failed, queued, paused")
	watchCmd.Flags().Duration("interval", time.Second, "Refresh interval")
}
