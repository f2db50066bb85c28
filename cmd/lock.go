package cmd

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/riptide-dl/riptide/internal/config"
)

var watchLock *flock.Flock

// acquireWatchLock takes the single-watcher lock. One interactive
// session per machine keeps the daemon from fanning events out to
// forgotten terminals.
func acquireWatchLock() (bool, error) {
	if err := config.EnsureDirs(); err != nil {
		return false, err
	}
	watchLock = flock.New(filepath.Join(config.GetRiptideDir(), "watch.lock"))
	return watchLock.TryLock()
}

func releaseWatchLock() error {
	if watchLock == nil {
		return nil
	}
	return watchLock.Unlock()
}
