package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/riptide-dl/riptide/internal/client"
	"github.com/riptide-dl/riptide/internal/model"
)

// matchDownloadID resolves a partial id (prefix) against a set of
// downloads. Returns the full id on a unique match, the input unchanged
// when nothing matches (the daemon will report not-found), and an error
// on an ambiguous prefix.
func matchDownloadID(downloads []model.Download, partial string) (string, error) {
	if len(partial) >= 32 {
		return partial, nil
	}

	var matches []string
	for _, d := range downloads {
		if strings.HasPrefix(d.ID, partial) {
			matches = append(matches, d.ID)
		}
	}
	switch len(matches) {
	case 0:
		return partial, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous ID prefix '%s' matches %d downloads", partial, len(matches))
	}
}

// resolveDownloadID resolves a partial id using the daemon's snapshot.
func resolveDownloadID(ctx context.Context, c *client.Client, partial string) (string, error) {
	return matchDownloadID(c.ListDownloads(ctx), partial)
}

// shortID trims a uuid for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
