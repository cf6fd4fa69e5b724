package ledger

import (
	"github.com/perkhive/loyalty-server/internal/models"
	"gorm.io/gorm"
)

// consume satisfies pointsToDeduct from the user's valid grants, soonest
// expiry first, in two passes: partially-consumed grants, then untouched
// grants. It must run inside a transaction holding the user's row lock; on
// ErrInsufficientPoints the caller's rollback discards every mutation.
func consume(tx *gorm.DB, userID uint64, pointsToDeduct int64) error {
	if pointsToDeduct <= 0 {
		return nil
	}

	// Pass 1: grants with a tracked remaining balance.
	var partial []models.PaymentGrant
	if errFind := tx.
		Where("receiver_id = ? AND status = ? AND remaining_points IS NOT NULL AND remaining_points > 0",
			userID, models.GrantStatusValid).
		Order("expiry_date ASC").
		Find(&partial).Error; errFind != nil {
		return errFind
	}
	for i := range partial {
		if pointsToDeduct == 0 {
			break
		}
		grant := &partial[i]
		remaining := *grant.RemainingPoints
		if remaining <= pointsToDeduct {
			// Grant exhausted: its value is fully spent.
			pointsToDeduct -= remaining
			if errExpire := expireGrant(tx, grant); errExpire != nil {
				return errExpire
			}
			continue
		}
		remaining -= pointsToDeduct
		pointsToDeduct = 0
		if errSave := tx.Model(grant).Update("remaining_points", remaining).Error; errSave != nil {
			return errSave
		}
	}

	if pointsToDeduct == 0 {
		return nil
	}

	// Pass 2: untouched grants, valued at their full floor value.
	var untouched []models.PaymentGrant
	if errFind := tx.
		Where("receiver_id = ? AND status = ? AND remaining_points IS NULL",
			userID, models.GrantStatusValid).
		Order("expiry_date ASC").
		Find(&untouched).Error; errFind != nil {
		return errFind
	}
	for i := range untouched {
		if pointsToDeduct == 0 {
			break
		}
		grant := &untouched[i]
		value := GrantValue(grant)
		if value <= pointsToDeduct {
			pointsToDeduct -= value
			if errExpire := expireGrant(tx, grant); errExpire != nil {
				return errExpire
			}
			continue
		}
		remaining := value - pointsToDeduct
		pointsToDeduct = 0
		if errSave := tx.Model(grant).Update("remaining_points", remaining).Error; errSave != nil {
			return errSave
		}
	}

	if pointsToDeduct > 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// expireGrant marks a grant expired and clears its remaining balance, removing
// it from all future consumption and sweep processing.
func expireGrant(tx *gorm.DB, grant *models.PaymentGrant) error {
	grant.Status = models.GrantStatusExpired
	grant.RemainingPoints = nil
	return tx.Model(grant).Updates(map[string]any{
		"status":           models.GrantStatusExpired,
		"remaining_points": nil,
	}).Error
}
