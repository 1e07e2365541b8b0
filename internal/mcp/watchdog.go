package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ParentPollInterval is how often WatchParent checks the parent pid.
const ParentPollInterval = 2 * time.Second

// WatchParent cancels the server context when the parent process goes
// away, so an editor that restarts does not leave orphaned servers behind.
//
// It must not read stdin: the stdio transport owns it.
//
// The goroutine exits when ctx is canceled or the parent pid changes.
func WatchParent(ctx context.Context, logger *slog.Logger, cancel context.CancelFunc) {
	watchParent(ctx, logger, cancel, os.Getppid, ParentPollInterval)
}

func watchParent(ctx context.Context, logger *slog.Logger, cancel context.CancelFunc, getppid func() int, every time.Duration) {
	if logger == nil {
		logger = slog.Default()
	}
	ppid := getppid()
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if getppid() != ppid {
					logger.Warn("parent process exited, shutting down", "ppid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
