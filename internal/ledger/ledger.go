// Package ledger implements the points ledger: payment grants with expiry
// windows, the soonest-expiry-first consumption algorithm behind redemption
// approval, and the expiry sweep that claws back unconsumed value.
//
// Every operation runs in a single database transaction that locks the user
// row first, so grant and balance mutation is serialized per user.
package ledger

import (
	"time"

	"github.com/perkhive/loyalty-server/internal/notify"
	"gorm.io/gorm"
)

// Ledger executes point grant, consumption and expiry operations.
type Ledger struct {
	db       *gorm.DB
	notifier notify.Notifier

	// now is overridable in tests; sweeps compare midnight-normalized dates.
	now func() time.Time
}

// New constructs a Ledger. A nil notifier disables notifications.
func New(db *gorm.DB, notifier notify.Notifier) *Ledger {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Ledger{
		db:       db,
		notifier: notifier,
		now:      time.Now,
	}
}

// midnight truncates a time to the start of its day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
