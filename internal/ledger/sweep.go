package ledger

import (
	"context"
	"errors"

	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/perkhive/loyalty-server/internal/notify"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sweep expires every valid grant from adminID to userID whose deduction date
// (expiry date plus one day, midnight-normalized) is on or before today, and
// claws the unconsumed remainder back from the user's balance. It returns the
// total points deducted. Running it again on the same grants deducts nothing:
// swept grants are no longer valid.
func (l *Ledger) Sweep(ctx context.Context, adminID, userID uint64) (int64, error) {
	total, err := l.sweep(ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Where("sender_id = ?", adminID)
	})
	if err != nil {
		return 0, err
	}
	if total > 0 {
		l.notifier.Notify(ctx, userID, notify.EventPointsExpired, map[string]any{
			"points": total,
		})
	}
	return total, nil
}

// SweepOverdue expires overdue grants for every user that has any, one user
// per transaction. It returns the number of users touched and the total points
// deducted; per-user failures are logged and skipped.
func (l *Ledger) SweepOverdue(ctx context.Context) (users int, total int64, err error) {
	deductBefore := midnight(l.now()).AddDate(0, 0, -1)

	var receiverIDs []uint64
	if errFind := l.db.WithContext(ctx).
		Model(&models.PaymentGrant{}).
		Distinct("receiver_id").
		Where("status = ? AND expiry_date <= ?", models.GrantStatusValid, deductBefore).
		Pluck("receiver_id", &receiverIDs).Error; errFind != nil {
		return 0, 0, errFind
	}

	for _, receiverID := range receiverIDs {
		deducted, errSweep := l.sweep(ctx, receiverID, nil)
		if errSweep != nil {
			log.WithError(errSweep).WithField("user_id", receiverID).Warn("sweep: user sweep failed")
			continue
		}
		if deducted > 0 {
			users++
			total += deducted
			l.notifier.Notify(ctx, receiverID, notify.EventPointsExpired, map[string]any{
				"points": deducted,
			})
		}
	}
	return users, total, nil
}

// sweep runs one sweep transaction for a user. The optional scope narrows the
// grant query (e.g. to one sender).
func (l *Ledger) sweep(ctx context.Context, userID uint64, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&user, userID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}

		q := tx.Where("receiver_id = ? AND status = ?", userID, models.GrantStatusValid).
			Order("expiry_date ASC")
		if scope != nil {
			q = scope(q)
		}
		var grants []models.PaymentGrant
		if errFind := q.Find(&grants).Error; errFind != nil {
			return errFind
		}

		today := midnight(l.now())
		for i := range grants {
			grant := &grants[i]
			deductionDate := midnight(grant.ExpiryDate).AddDate(0, 0, 1)
			if deductionDate.After(today) {
				continue
			}
			deduction := remainingValue(grant)
			DebitPoints(&user, deduction)
			total += deduction
			if errExpire := expireGrant(tx, grant); errExpire != nil {
				return errExpire
			}
		}

		if total == 0 {
			return nil
		}
		return tx.Model(&user).Update("points", user.Points).Error
	})
	if errTx != nil {
		return 0, errTx
	}
	return total, nil
}
