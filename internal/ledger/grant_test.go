package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perkhive/loyalty-server/internal/models"
)

func TestParseExpirySpec(t *testing.T) {
	cases := []struct {
		spec   string
		months int
		ok     bool
	}{
		{"3 months", 3, true},
		{"1 month", 1, true},
		{"12months", 12, true},
		{"  6 Months  ", 6, true},
		{"0 months", 0, false},
		{"three months", 0, false},
		{"3 weeks", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		months, errParse := ParseExpirySpec(tc.spec)
		if tc.ok {
			if errParse != nil {
				t.Fatalf("ParseExpirySpec(%q): unexpected error %v", tc.spec, errParse)
			}
			if months != tc.months {
				t.Fatalf("ParseExpirySpec(%q): expected %d, got %d", tc.spec, tc.months, months)
			}
			continue
		}
		if !errors.Is(errParse, ErrInvalidExpiryFormat) {
			t.Fatalf("ParseExpirySpec(%q): expected ErrInvalidExpiryFormat, got %v", tc.spec, errParse)
		}
	}
}

func TestGrantValueFloorsWhereCreationRounds(t *testing.T) {
	grant := &models.PaymentGrant{Amount: 335, RewardPercentage: 10, Status: models.GrantStatusValid}
	if v := GrantValue(grant); v != 33 {
		t.Fatalf("expected floor value 33, got %d", v)
	}
	if p := grantedPoints(335, 10); p != 34 {
		t.Fatalf("expected rounded credit 34, got %d", p)
	}
}

func TestCreateGrantCreditsReceiverAndBumpsInvoiceCounter(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	user := seedUser(t, conn, "CODE1234", 0)

	grant, errCreate := l.CreateGrant(context.Background(), CreateGrantParams{
		InvoiceNumber:    "INV-1",
		Amount:           500,
		RewardPercentage: 10,
		ExpirySpec:       "3 months",
		SenderID:         admin.ID,
		ReceiverCode:     "CODE1234",
	})
	if errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}

	wantExpiry := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	if !grant.ExpiryDate.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, grant.ExpiryDate)
	}
	if grant.Status != models.GrantStatusValid {
		t.Fatalf("expected status valid, got %s", grant.Status)
	}
	if grant.RemainingPoints != nil {
		t.Fatalf("expected untouched grant, got remaining %d", *grant.RemainingPoints)
	}

	if got := reloadUser(t, conn, user.ID).Points; got != 50 {
		t.Fatalf("expected balance 50, got %d", got)
	}
	var reloaded models.Admin
	if errFind := conn.First(&reloaded, admin.ID).Error; errFind != nil {
		t.Fatalf("reload admin: %v", errFind)
	}
	if reloaded.InvoicesIssued != 1 {
		t.Fatalf("expected invoices_issued 1, got %d", reloaded.InvoicesIssued)
	}
}

func TestCreateGrantRejectsDuplicateInvoice(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	seedUser(t, conn, "CODE1234", 0)

	params := CreateGrantParams{
		InvoiceNumber:    "INV-DUP",
		Amount:           100,
		RewardPercentage: 10,
		ExpirySpec:       "1 month",
		SenderID:         admin.ID,
		ReceiverCode:     "CODE1234",
	}
	if _, errCreate := l.CreateGrant(context.Background(), params); errCreate != nil {
		t.Fatalf("first create: %v", errCreate)
	}
	if _, errCreate := l.CreateGrant(context.Background(), params); !errors.Is(errCreate, ErrDuplicateInvoice) {
		t.Fatalf("expected ErrDuplicateInvoice, got %v", errCreate)
	}
}

func TestCreateGrantUnknownParties(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	l, conn := newTestLedger(t, now)
	admin := seedAdmin(t, conn, "shop@example.com")
	seedUser(t, conn, "CODE1234", 0)

	_, errCreate := l.CreateGrant(context.Background(), CreateGrantParams{
		InvoiceNumber: "INV-1", Amount: 100, RewardPercentage: 10,
		ExpirySpec: "1 month", SenderID: admin.ID, ReceiverCode: "NOPE",
	})
	if !errors.Is(errCreate, ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", errCreate)
	}

	_, errCreate = l.CreateGrant(context.Background(), CreateGrantParams{
		InvoiceNumber: "INV-2", Amount: 100, RewardPercentage: 10,
		ExpirySpec: "1 month", SenderID: admin.ID + 99, ReceiverCode: "CODE1234",
	})
	if !errors.Is(errCreate, ErrSenderNotFound) {
		t.Fatalf("expected ErrSenderNotFound, got %v", errCreate)
	}
}

func TestCreateGrantRejectsInvalidExpiry(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	admin := seedAdmin(t, conn, "shop@example.com")
	seedUser(t, conn, "CODE1234", 0)

	_, errCreate := l.CreateGrant(context.Background(), CreateGrantParams{
		InvoiceNumber: "INV-1", Amount: 100, RewardPercentage: 10,
		ExpirySpec: "someday", SenderID: admin.ID, ReceiverCode: "CODE1234",
	})
	if !errors.Is(errCreate, ErrInvalidExpiryFormat) {
		t.Fatalf("expected ErrInvalidExpiryFormat, got %v", errCreate)
	}
}

func TestCreditTokensCreatesNoGrant(t *testing.T) {
	l, conn := newTestLedger(t, time.Now())
	user := seedUser(t, conn, "CODE1234", 10)

	updated, errCredit := l.CreditTokens(context.Background(), user.ID, 25)
	if errCredit != nil {
		t.Fatalf("credit tokens: %v", errCredit)
	}
	if updated.Points != 35 {
		t.Fatalf("expected balance 35, got %d", updated.Points)
	}

	var grants int64
	if errCount := conn.Model(&models.PaymentGrant{}).Count(&grants).Error; errCount != nil {
		t.Fatalf("count grants: %v", errCount)
	}
	if grants != 0 {
		t.Fatalf("expected no grants, got %d", grants)
	}
}

func TestCreditTokensUnknownUser(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())
	if _, errCredit := l.CreditTokens(context.Background(), 42, 25); !errors.Is(errCredit, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", errCredit)
	}
}
