package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/perkhive/loyalty-server/internal/models"
)

func TestSweepDeductsGrantsPastDeductionDate(t *testing.T) {
	// Expiry yesterday: the deduction date (expiry + 1 day) is today.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 150)
	grant := seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), nil) // value 100

	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 100 {
		t.Fatalf("expected 100 deducted, got %d", total)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 50 {
		t.Fatalf("expected balance 50, got %d", got)
	}
	got := reloadGrant(t, conn, grant.ID)
	if got.Status != models.GrantStatusExpired || got.RemainingPoints != nil {
		t.Fatalf("expected grant expired with no remaining, got status %s remaining %v", got.Status, got.RemainingPoints)
	}
}

func TestSweepSkipsGrantsNotYetDue(t *testing.T) {
	// Expiry today: the deduction date is tomorrow.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 150)
	grant := seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), nil)

	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 0 {
		t.Fatalf("expected nothing deducted, got %d", total)
	}
	if got := reloadGrant(t, conn, grant.ID); got.Status != models.GrantStatusValid {
		t.Fatalf("expected grant still valid, got %s", got.Status)
	}
}

func TestSweepCatchesGrantsOverdueByDays(t *testing.T) {
	// A missed sweep still claws back grants whose deduction date has long passed.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 150)
	seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil)

	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 100 {
		t.Fatalf("expected 100 deducted, got %d", total)
	}
}

func TestSweepDeductsOnlyRemainingValueOfPartialGrants(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 150)
	seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), int64Ptr(30))

	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 30 {
		t.Fatalf("expected 30 deducted, got %d", total)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 120 {
		t.Fatalf("expected balance 120, got %d", got)
	}
}

func TestSweepIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 150)
	seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), nil)

	if _, errSweep := l.Sweep(context.Background(), admin.ID, user.ID); errSweep != nil {
		t.Fatalf("first sweep: %v", errSweep)
	}
	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("second sweep: %v", errSweep)
	}
	if total != 0 {
		t.Fatalf("expected second sweep to deduct nothing, got %d", total)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 50 {
		t.Fatalf("expected balance unchanged at 50, got %d", got)
	}
}

func TestSweepFloorsBalanceAtZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 20)
	seedGrant(t, conn, admin.ID, user.ID, "INV-1", 1000,
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), nil) // value 100 > balance

	total, errSweep := l.Sweep(context.Background(), admin.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 100 {
		t.Fatalf("expected 100 deducted, got %d", total)
	}
	if got := reloadUser(t, conn, user.ID).Points; got != 0 {
		t.Fatalf("expected balance floored at 0, got %d", got)
	}
}

func TestSweepScopedToSender(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	shopA := seedAdmin(t, conn, "a@example.com")
	shopB := seedAdmin(t, conn, "b@example.com")
	user := seedUser(t, conn, "CODE1234", 300)
	overdue := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedGrant(t, conn, shopA.ID, user.ID, "INV-A", 1000, overdue, nil)
	grantB := seedGrant(t, conn, shopB.ID, user.ID, "INV-B", 1000, overdue, nil)

	total, errSweep := l.Sweep(context.Background(), shopA.ID, user.ID)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if total != 100 {
		t.Fatalf("expected only shop A's grant swept, got %d", total)
	}
	if got := reloadGrant(t, conn, grantB.ID); got.Status != models.GrantStatusValid {
		t.Fatalf("expected shop B's grant untouched, got %s", got.Status)
	}
}

func TestSweepOverdueCoversAllReceivers(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	alice := seedUser(t, conn, "ALICE123", 200)
	bob := seedUser(t, conn, "BOB12345", 200)
	carol := seedUser(t, conn, "CAROL123", 200)
	overdue := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedGrant(t, conn, admin.ID, alice.ID, "INV-A", 1000, overdue, nil)
	seedGrant(t, conn, admin.ID, bob.ID, "INV-B", 500, overdue, int64Ptr(20))
	seedGrant(t, conn, admin.ID, carol.ID, "INV-C", 1000,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	users, total, errSweep := l.SweepOverdue(context.Background())
	if errSweep != nil {
		t.Fatalf("sweep overdue: %v", errSweep)
	}
	if users != 2 {
		t.Fatalf("expected 2 users swept, got %d", users)
	}
	if total != 120 {
		t.Fatalf("expected 120 deducted in total, got %d", total)
	}
	if got := reloadUser(t, conn, alice.ID).Points; got != 100 {
		t.Fatalf("expected alice at 100, got %d", got)
	}
	if got := reloadUser(t, conn, bob.ID).Points; got != 180 {
		t.Fatalf("expected bob at 180, got %d", got)
	}
	if got := reloadUser(t, conn, carol.ID).Points; got != 200 {
		t.Fatalf("expected carol untouched at 200, got %d", got)
	}
}
