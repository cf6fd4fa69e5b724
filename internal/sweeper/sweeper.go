// Package sweeper runs the expiry sweep periodically so overdue grants are
// clawed back even when no user triggers the on-demand check.
package sweeper

import (
	"context"
	"time"

	"github.com/perkhive/loyalty-server/internal/ledger"
	log "github.com/sirupsen/logrus"
)

const defaultSweepInterval = 24 * time.Hour

// Sweeper periodically expires overdue payment grants.
type Sweeper struct {
	ledger   *ledger.Ledger
	interval time.Duration
}

// New constructs a Sweeper. A non-positive interval falls back to daily.
func New(l *ledger.Ledger, interval time.Duration) *Sweeper {
	if l == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{ledger: l, interval: interval}
}

// Start launches the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("grant sweeper started (interval=%s)", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.sweepOnce(ctx)
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	users, total, err := s.ledger.SweepOverdue(ctx)
	if err != nil {
		log.WithError(err).Warn("grant sweeper: sweep failed")
		return
	}
	if total > 0 {
		log.Infof("grant sweeper: expired grants for %d users (points=%d)", users, total)
	}
}
