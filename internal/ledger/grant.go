package ledger

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	dbutil "github.com/perkhive/loyalty-server/internal/db"
	"github.com/perkhive/loyalty-server/internal/models"
	"github.com/perkhive/loyalty-server/internal/notify"
	"gorm.io/gorm"
)

// expirySpecPattern matches expiry specs of the form "3 months".
var expirySpecPattern = regexp.MustCompile(`^(\d+)\s*months?$`)

// ParseExpirySpec parses an expiry spec like "3 months" into a month count.
func ParseExpirySpec(spec string) (int, error) {
	m := expirySpecPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(spec)))
	if m == nil {
		return 0, ErrInvalidExpiryFormat
	}
	months, errParse := strconv.Atoi(m[1])
	if errParse != nil || months <= 0 {
		return 0, ErrInvalidExpiryFormat
	}
	return months, nil
}

// GrantValue returns the full point value of an untouched grant:
// floor(amount * percentage / 100).
func GrantValue(grant *models.PaymentGrant) int64 {
	if grant == nil {
		return 0
	}
	return int64(math.Floor(grant.Amount * grant.RewardPercentage / 100))
}

// grantedPoints returns the points credited when a grant is created:
// round(amount * percentage / 100).
func grantedPoints(amount, percentage float64) int64 {
	return int64(math.Round(amount * percentage / 100))
}

// remainingValue returns the points still attributable to a valid grant.
func remainingValue(grant *models.PaymentGrant) int64 {
	if grant == nil || grant.Status != models.GrantStatusValid {
		return 0
	}
	if grant.RemainingPoints != nil {
		return *grant.RemainingPoints
	}
	return GrantValue(grant)
}

// CreateGrantParams holds inputs for payment grant creation.
type CreateGrantParams struct {
	InvoiceNumber    string
	Amount           float64
	RewardPercentage float64
	ExpirySpec       string // e.g. "3 months"
	SenderID         uint64
	ReceiverCode     string // user unique code
}

// CreateGrant records a payment: it computes the expiry date and point value,
// credits the receiver's balance and persists a valid, untouched grant. The
// sender's invoice counter is bumped in the same transaction.
func (l *Ledger) CreateGrant(ctx context.Context, params CreateGrantParams) (*models.PaymentGrant, error) {
	months, errParse := ParseExpirySpec(params.ExpirySpec)
	if errParse != nil {
		return nil, errParse
	}

	var grant models.PaymentGrant
	var receiverID uint64
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.Admin
		if errFind := tx.First(&sender, params.SenderID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrSenderNotFound
			}
			return errFind
		}

		var receiver models.User
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			Where("unique_code = ?", strings.TrimSpace(params.ReceiverCode)).
			First(&receiver).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrReceiverNotFound
			}
			return errFind
		}

		var duplicates int64
		if errCount := tx.Model(&models.PaymentGrant{}).
			Where("invoice_number = ?", params.InvoiceNumber).
			Count(&duplicates).Error; errCount != nil {
			return errCount
		}
		if duplicates > 0 {
			return ErrDuplicateInvoice
		}

		now := l.now()
		grant = models.PaymentGrant{
			InvoiceNumber:    params.InvoiceNumber,
			Amount:           params.Amount,
			RewardPercentage: params.RewardPercentage,
			ExpiryDate:       midnight(now).AddDate(0, months, 0),
			SenderID:         sender.ID,
			ReceiverID:       receiver.ID,
			Status:           models.GrantStatusValid,
			RemainingPoints:  nil,
		}
		if errCreate := tx.Create(&grant).Error; errCreate != nil {
			return errCreate
		}

		CreditPoints(&receiver, grantedPoints(params.Amount, params.RewardPercentage))
		if errSave := tx.Model(&receiver).Update("points", receiver.Points).Error; errSave != nil {
			return errSave
		}
		receiverID = receiver.ID

		return tx.Model(&sender).
			Update("invoices_issued", gorm.Expr("invoices_issued + 1")).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	l.notifier.Notify(ctx, receiverID, notify.EventPointsGranted, map[string]any{
		"grant_id": grant.ID,
		"invoice":  grant.InvoiceNumber,
		"points":   grantedPoints(grant.Amount, grant.RewardPercentage),
		"expires":  grant.ExpiryDate,
	})
	return &grant, nil
}

// CreditTokens credits permanent, non-expiring points to a user. No grant is
// recorded, so the value never takes part in consumption or sweeps.
func (l *Ledger) CreditTokens(ctx context.Context, userID uint64, points int64) (*models.User, error) {
	var user models.User
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Clauses(dbutil.LockingClauses(tx)...).
			First(&user, userID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errFind
		}
		CreditPoints(&user, points)
		return tx.Model(&user).Update("points", user.Points).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	l.notifier.Notify(ctx, user.ID, notify.EventTokensCredited, map[string]any{
		"points":  points,
		"balance": user.Points,
	})
	return &user, nil
}
