// Package notify delivers fire-and-forget user notifications. The ledger calls
// the Notifier port synchronously; delivery failures are logged and swallowed
// so they never affect ledger outcomes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification event names emitted by the ledger.
const (
	EventPointsGranted       = "points.granted"
	EventPointsExpired       = "points.expired"
	EventTokensCredited      = "tokens.credited"
	EventRedemptionRequested = "redemption.requested"
	EventRedemptionApproved  = "redemption.approved"
	EventRedemptionRejected  = "redemption.rejected"
)

// Notifier pushes an event to a user. Implementations must not block on
// delivery beyond the passed context and must never return delivery errors to
// ledger callers.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, event string, payload any)
}

// Noop discards all notifications.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, uint64, string, any) {}

// Publisher persists each notification and, when Redis is configured,
// publishes it to the user's channel for live UI push.
type Publisher struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewPublisher constructs a Publisher. rdb may be nil, in which case
// notifications are persisted only.
func NewPublisher(db *gorm.DB, rdb *redis.Client) *Publisher {
	return &Publisher{db: db, rdb: rdb}
}

// channelFor returns the Redis pub/sub channel for a user.
func channelFor(userID uint64) string {
	return fmt.Sprintf("loyalty:user:%d", userID)
}

// Notify implements Notifier.
func (p *Publisher) Notify(ctx context.Context, userID uint64, event string, payload any) {
	if p == nil || p.db == nil || userID == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	raw, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		log.WithError(errMarshal).WithField("event", event).Warn("notify: marshal payload failed")
		return
	}

	row := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Event:   event,
		Payload: datatypes.JSON(raw),
	}
	if errCreate := p.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithField("event", event).Warn("notify: persist failed")
	}

	if p.rdb == nil {
		return
	}
	message, errMessage := json.Marshal(map[string]any{
		"id":      row.ID,
		"event":   event,
		"payload": json.RawMessage(raw),
		"at":      time.Now().UTC().Format(time.RFC3339),
	})
	if errMessage != nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPub := p.rdb.Publish(pubCtx, channelFor(userID), message).Err(); errPub != nil {
		log.WithError(errPub).WithField("event", event).Debug("notify: redis publish failed")
	}
}
