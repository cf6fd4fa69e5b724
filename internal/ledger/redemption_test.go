package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perkhive/loyalty-server/internal/models"
)

func TestRequestRedemptionDebitsBalanceImmediately(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	if request.Status != models.RedemptionStatusPending {
		t.Fatalf("expected pending, got %s", request.Status)
	}
	if request.Reference == "" {
		t.Fatalf("expected a reference to be assigned")
	}
	if request.PointsRequired != 40 {
		t.Fatalf("expected cost snapshot 40, got %d", request.PointsRequired)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 60 {
		t.Fatalf("expected balance 60 after debit, got %d", got)
	}
}

func TestRequestRedemptionSnapshotsCostAgainstLaterPriceChange(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	if errUpdate := conn.Model(reward).Update("points_required", 999).Error; errUpdate != nil {
		t.Fatalf("reprice reward: %v", errUpdate)
	}

	var reloaded models.RedemptionRequest
	if errFind := conn.First(&reloaded, request.ID).Error; errFind != nil {
		t.Fatalf("reload request: %v", errFind)
	}
	if reloaded.PointsRequired != 40 {
		t.Fatalf("expected snapshot 40 to survive reprice, got %d", reloaded.PointsRequired)
	}
}

func TestRequestRedemptionInsufficientBalance(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 10)
	reward := seedReward(t, conn, admin.ID, 40, true)

	if _, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID); !errors.Is(errRequest, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", errRequest)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 10 {
		t.Fatalf("expected balance untouched at 10, got %d", got)
	}
}

func TestRequestRedemptionInactiveReward(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, false)

	if _, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID); !errors.Is(errRequest, ErrRewardInactive) {
		t.Fatalf("expected ErrRewardInactive, got %v", errRequest)
	}
}

func TestApproveRedemptionConsumesGrantsWithoutSecondDebit(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)
	grant := seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil) // value 100

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}

	approved, errApprove := l.ApproveRedemption(context.Background(), request.ID)
	if errApprove != nil {
		t.Fatalf("approve redemption: %v", errApprove)
	}
	if approved.Status != models.RedemptionStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.RedeemedAt == nil || !approved.RedeemedAt.Equal(now) {
		t.Fatalf("expected redeemed_at %v, got %v", now, approved.RedeemedAt)
	}

	// The balance was debited at request time; approval only consumes grants.
	if got := reloadUser(t, conn, user.ID).Points; got != 60 {
		t.Fatalf("expected balance still 60, got %d", got)
	}
	got := reloadGrant(t, conn, grant.ID)
	if got.RemainingPoints == nil || *got.RemainingPoints != 60 {
		t.Fatalf("expected grant remaining 60, got %v", got.RemainingPoints)
	}
}

func TestApproveRedemptionRollsBackOnInsufficientGrants(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 0)
	reward := seedReward(t, conn, admin.ID, 40, true)

	// Balance comes from permanent tokens; there is no grant value to consume.
	if _, errCredit := l.CreditTokens(context.Background(), user.ID, 100); errCredit != nil {
		t.Fatalf("credit tokens: %v", errCredit)
	}
	grant := seedGrant(t, conn, admin.ID, user.ID, "INV-1", 100,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil) // value 10 < cost

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}

	if _, errApprove := l.ApproveRedemption(context.Background(), request.ID); !errors.Is(errApprove, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", errApprove)
	}

	var reloaded models.RedemptionRequest
	if errFind := conn.First(&reloaded, request.ID).Error; errFind != nil {
		t.Fatalf("reload request: %v", errFind)
	}
	if reloaded.Status != models.RedemptionStatusPending {
		t.Fatalf("expected request still pending after rollback, got %s", reloaded.Status)
	}
	got := reloadGrant(t, conn, grant.ID)
	if got.Status != models.GrantStatusValid || got.RemainingPoints != nil {
		t.Fatalf("expected grant untouched after rollback, got status %s remaining %v", got.Status, got.RemainingPoints)
	}
}

func TestApproveRedemptionIdempotent(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)
	grant := seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	if _, errApprove := l.ApproveRedemption(context.Background(), request.ID); errApprove != nil {
		t.Fatalf("first approve: %v", errApprove)
	}
	if _, errApprove := l.ApproveRedemption(context.Background(), request.ID); !errors.Is(errApprove, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", errApprove)
	}

	// Grant value must not be consumed twice.
	got := reloadGrant(t, conn, grant.ID)
	if got.RemainingPoints == nil || *got.RemainingPoints != 60 {
		t.Fatalf("expected remaining 60 after double approve, got %v", got.RemainingPoints)
	}
}

func TestRejectRedemptionRefundsDebit(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	rejected, errReject := l.RejectRedemption(context.Background(), request.ID)
	if errReject != nil {
		t.Fatalf("reject redemption: %v", errReject)
	}
	if rejected.Status != models.RedemptionStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 100 {
		t.Fatalf("expected balance refunded to 100, got %d", got)
	}

	if _, errReject = l.RejectRedemption(context.Background(), request.ID); !errors.Is(errReject, ErrAlreadyRejected) {
		t.Fatalf("expected ErrAlreadyRejected, got %v", errReject)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 100 {
		t.Fatalf("expected no double refund, got %d", got)
	}
}

func TestCancelRedemptionKeepsDebit(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)

	request, errRequest := l.RequestRedemption(context.Background(), user.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	cancelled, errCancel := l.CancelRedemption(context.Background(), user.ID, request.ID)
	if errCancel != nil {
		t.Fatalf("cancel redemption: %v", errCancel)
	}
	if cancelled.Status != models.RedemptionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 60 {
		t.Fatalf("expected debit retained, balance 60, got %d", got)
	}
}

func TestCancelRedemptionScopedToOwner(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	owner := seedUser(t, conn, "OWNER123", 100)
	other := seedUser(t, conn, "OTHER123", 100)
	reward := seedReward(t, conn, admin.ID, 40, true)

	request, errRequest := l.RequestRedemption(context.Background(), owner.ID, reward.ID)
	if errRequest != nil {
		t.Fatalf("request redemption: %v", errRequest)
	}
	if _, errCancel := l.CancelRedemption(context.Background(), other.ID, request.ID); !errors.Is(errCancel, ErrRedemptionNotFound) {
		t.Fatalf("expected ErrRedemptionNotFound for non-owner, got %v", errCancel)
	}
}
