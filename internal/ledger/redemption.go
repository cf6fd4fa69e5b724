package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/perkhive/loyalty-server/internal/notify"
	"gorm.io/gorm"
)

// terminalStateError maps a terminal redemption status onto its idempotent
// "already X" error.
func terminalStateError(status string) error {
	switch status {
	case models.RedemptionStatusApproved:
		return ErrAlreadyApproved
	case models.RedemptionStatusRejected:
		return ErrAlreadyRejected
	case models.RedemptionStatusCancelled:
		return ErrAlreadyCancelled
	default:
		return nil
	}
}

// RequestRedemption creates a pending redemption for a reward, debiting the
// user's balance immediately. The debit is refunded on rejection but kept on
// cancellation.
func (l *Ledger) RequestRedemption(ctx context.Context, userID, rewardID uint64) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&user, userID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}

		var reward models.Reward
		if errFind := tx.First(&reward, rewardID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return errFind
		}
		if !reward.IsActive {
			return ErrRewardInactive
		}
		if user.Points < reward.PointsRequired {
			return ErrInsufficientPoints
		}

		DebitPoints(&user, reward.PointsRequired)
		if errSave := tx.Model(&user).Update("points", user.Points).Error; errSave != nil {
			return errSave
		}

		request = models.RedemptionRequest{
			Reference:      uuid.NewString(),
			UserID:         user.ID,
			RewardID:       reward.ID,
			PointsRequired: reward.PointsRequired,
			Status:         models.RedemptionStatusPending,
		}
		return tx.Create(&request).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	l.notifier.Notify(ctx, request.UserID, notify.EventRedemptionRequested, map[string]any{
		"redemption_id": request.ID,
		"reference":     request.Reference,
		"points":        request.PointsRequired,
	})
	return &request, nil
}

// ApproveRedemption transitions a pending redemption to approved by consuming
// grant value for its point cost. The balance is not debited here; it was
// debited when the request was created. All grant mutations and the status
// change commit together or not at all.
func (l *Ledger) ApproveRedemption(ctx context.Context, redemptionID uint64) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&request, redemptionID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrRedemptionNotFound
			}
			return errFind
		}
		if errTerminal := terminalStateError(request.Status); errTerminal != nil {
			return errTerminal
		}

		var user models.User
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&user, request.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}

		if errConsume := consume(tx, user.ID, request.PointsRequired); errConsume != nil {
			return errConsume
		}

		now := l.now()
		request.Status = models.RedemptionStatusApproved
		request.RedeemedAt = &now
		return tx.Model(&request).Updates(map[string]any{
			"status":      models.RedemptionStatusApproved,
			"redeemed_at": now,
		}).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	l.notifier.Notify(ctx, request.UserID, notify.EventRedemptionApproved, map[string]any{
		"redemption_id": request.ID,
		"reference":     request.Reference,
		"points":        request.PointsRequired,
	})
	return &request, nil
}

// RejectRedemption transitions a pending redemption to rejected and refunds
// the points debited at request time.
func (l *Ledger) RejectRedemption(ctx context.Context, redemptionID uint64) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&request, redemptionID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrRedemptionNotFound
			}
			return errFind
		}
		if errTerminal := terminalStateError(request.Status); errTerminal != nil {
			return errTerminal
		}

		var user models.User
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&user, request.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}

		CreditPoints(&user, request.PointsRequired)
		if errSave := tx.Model(&user).Update("points", user.Points).Error; errSave != nil {
			return errSave
		}

		request.Status = models.RedemptionStatusRejected
		return tx.Model(&request).Update("status", models.RedemptionStatusRejected).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	l.notifier.Notify(ctx, request.UserID, notify.EventRedemptionRejected, map[string]any{
		"redemption_id": request.ID,
		"reference":     request.Reference,
		"points":        request.PointsRequired,
	})
	return &request, nil
}

// CancelRedemption voids a pending redemption on the user's behalf. The points
// debited at request time are not refunded; product has not confirmed whether
// this asymmetry with rejection is intended, so the behavior is preserved.
func (l *Ledger) CancelRedemption(ctx context.Context, userID, redemptionID uint64) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			Where("id = ? AND user_id = ?", redemptionID, userID).
			First(&request).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrRedemptionNotFound
			}
			return errFind
		}
		if errTerminal := terminalStateError(request.Status); errTerminal != nil {
			return errTerminal
		}

		request.Status = models.RedemptionStatusCancelled
		return tx.Model(&request).Update("status", models.RedemptionStatusCancelled).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &request, nil
}
