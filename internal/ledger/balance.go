package ledger

import "github.com/perkhive/loyalty-server/internal/models"

// CreditPoints and DebitPoints are the only balance mutators in the codebase.
// Keeping the arithmetic here gives the non-negativity invariant a single
// enforcement point.

// CreditPoints adds points to a user's balance.
func CreditPoints(user *models.User, points int64) {
	if user == nil || points <= 0 {
		return
	}
	user.Points += points
}

// DebitPoints removes points from a user's balance, flooring at zero.
func DebitPoints(user *models.User, points int64) {
	if user == nil || points <= 0 {
		return
	}
	user.Points -= points
	if user.Points < 0 {
		user.Points = 0
	}
}
