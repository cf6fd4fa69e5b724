package ledger

import "errors"

// Ledger operation errors. Handlers map these onto HTTP statuses with
// errors.Is; every failure carries one of these discriminated reasons.
var (
	// ErrInvalidExpiryFormat indicates an expiry spec that does not parse as "<n> months".
	ErrInvalidExpiryFormat = errors.New("invalid expiry format")
	// ErrSenderNotFound indicates the issuing admin does not exist.
	ErrSenderNotFound = errors.New("sender not found")
	// ErrReceiverNotFound indicates no user matches the given unique code.
	ErrReceiverNotFound = errors.New("receiver not found")
	// ErrUserNotFound indicates the user record does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateInvoice indicates a payment grant already exists for the invoice number.
	ErrDuplicateInvoice = errors.New("duplicate invoice number")

	// ErrRewardNotFound indicates the reward does not exist.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrRewardInactive indicates the reward is disabled for redemption.
	ErrRewardInactive = errors.New("reward is not active")
	// ErrInsufficientPoints indicates the valid grants cannot cover the requested consumption.
	ErrInsufficientPoints = errors.New("insufficient reward points")

	// ErrRedemptionNotFound indicates the redemption request does not exist.
	ErrRedemptionNotFound = errors.New("redemption not found")
	// ErrAlreadyApproved indicates the redemption already reached the approved state.
	ErrAlreadyApproved = errors.New("redemption already approved")
	// ErrAlreadyRejected indicates the redemption already reached the rejected state.
	ErrAlreadyRejected = errors.New("redemption already rejected")
	// ErrAlreadyCancelled indicates the redemption already reached the cancelled state.
	ErrAlreadyCancelled = errors.New("redemption already cancelled")
)
