package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scrob-fm/scrob/internal/repo"
)

// revokedRetention is how long revoked token rows are kept before the
// pruner removes them. A revoked token already fails every lookup, so this
// is housekeeping only; live tokens never expire.
const revokedRetention = 30 * 24 * time.Hour

// Run starts the background maintenance cron. It prunes long-revoked API
// tokens daily and returns the cron so the caller can stop it on shutdown.
func Run(tokens *repo.TokenRepo, log *slog.Logger) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@daily", func() {
		cutoff := time.Now().Add(-revokedRetention).Unix()
		n, err := tokens.DeleteRevokedBefore(context.Background(), cutoff)
		if err != nil {
			log.Error("prune revoked tokens", "error", err)
			return
		}
		if n > 0 {
			log.Info("pruned revoked tokens", "count", n)
		}
	})
	if err != nil {
		log.Error("scheduler: add prune job", "error", err)
		return c
	}

	c.Start()
	return c
}
