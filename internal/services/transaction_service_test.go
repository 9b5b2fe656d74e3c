package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

func TestAddTransactionValidation(t *testing.T) {
	repo := newTestRepo(t)
	accounts := NewAccountService(repo)
	transactions := NewTransactionService(repo)
	ctx := context.Background()

	acc, _ := accounts.CreateAccount(ctx, "Main Account")

	cases := []struct {
		name      string
		accountID string
		typ       core.TransactionType
		amount    decimal.Decimal
		wantErr   error
	}{
		{"bad type", acc.ID, core.TransactionType("transfer"), decimal.NewFromInt(10), core.ErrInvalidTransactionType},
		{"zero amount", acc.ID, core.CashIn, decimal.Zero, core.ErrInvalidAmount},
		{"negative amount", acc.ID, core.CashOut, decimal.NewFromInt(-1), core.ErrInvalidAmount},
		{"missing account", "missing", core.CashIn, decimal.NewFromInt(10), core.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := transactions.AddTransaction(ctx, tc.accountID, tc.typ, tc.amount, ""); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	// Nothing was persisted by the failed attempts.
	all, err := transactions.GetAllTransactions(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty log, got %d err=%v", len(all), err)
	}
}

func TestBalanceLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	accounts := NewAccountService(repo)
	transactions := NewTransactionService(repo)
	ctx := context.Background()

	acc, err := accounts.CreateAccount(ctx, "Main Account")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if _, err := transactions.AddTransaction(ctx, acc.ID, core.CashIn, decimal.NewFromInt(100), "salary"); err != nil {
		t.Fatalf("cash in: %v", err)
	}
	groceries, err := transactions.AddTransaction(ctx, acc.ID, core.CashOut, decimal.NewFromInt(40), "groceries")
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}

	balance, err := transactions.GetAccountBalance(ctx, acc.ID)
	if err != nil || !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s err=%v", balance, err)
	}

	if err := transactions.DeleteTransaction(ctx, groceries); err != nil {
		t.Fatalf("delete: %v", err)
	}

	balance, err = transactions.GetAccountBalance(ctx, acc.ID)
	if err != nil || !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100 after delete, got %s err=%v", balance, err)
	}

	global, err := transactions.GetCurrentBalance(ctx)
	if err != nil || !global.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected global balance 100, got %s err=%v", global, err)
	}
}

func TestLastTransactionAmounts(t *testing.T) {
	repo := newTestRepo(t)
	accounts := NewAccountService(repo)
	transactions := NewTransactionService(repo)
	ctx := context.Background()

	acc, _ := accounts.CreateAccount(ctx, "Main Account")

	// No transactions yet: both sides are zero.
	amounts, err := transactions.GetLastTransactionAmounts(ctx)
	if err != nil {
		t.Fatalf("last amounts: %v", err)
	}
	if !amounts.LastCashIn.Equal(decimal.Zero) || !amounts.LastCashOut.Equal(decimal.Zero) {
		t.Fatalf("expected zeros, got %+v", amounts)
	}

	// t1 < t2 < t3 with types [cash_in, cash_out, cash_in].
	for _, tx := range []core.Transaction{
		core.NewTransaction(acc.ID, core.CashIn, decimal.NewFromInt(10), "", time.UnixMilli(1000)),
		core.NewTransaction(acc.ID, core.CashOut, decimal.NewFromInt(20), "", time.UnixMilli(2000)),
		core.NewTransaction(acc.ID, core.CashIn, decimal.NewFromInt(30), "", time.UnixMilli(3000)),
	} {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	amounts, err = transactions.GetLastTransactionAmounts(ctx)
	if err != nil {
		t.Fatalf("last amounts: %v", err)
	}
	if !amounts.LastCashIn.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected last cash_in 30, got %s", amounts.LastCashIn)
	}
	if !amounts.LastCashOut.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected last cash_out 20, got %s", amounts.LastCashOut)
	}

	scoped, err := transactions.GetAccountLastTransactionAmounts(ctx, acc.ID)
	if err != nil || !scoped.LastCashIn.Equal(decimal.NewFromInt(30)) || !scoped.LastCashOut.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected scoped amounts %+v err=%v", scoped, err)
	}

	other, err := transactions.GetAccountLastTransactionAmounts(ctx, "other")
	if err != nil || !other.LastCashIn.Equal(decimal.Zero) || !other.LastCashOut.Equal(decimal.Zero) {
		t.Fatalf("expected zeros for unknown account, got %+v err=%v", other, err)
	}
}

func TestUpdateTransactionKeepsTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	accounts := NewAccountService(repo)
	transactions := NewTransactionService(repo)
	ctx := context.Background()

	acc, _ := accounts.CreateAccount(ctx, "Main Account")
	original := core.NewTransaction(acc.ID, core.CashIn, decimal.NewFromInt(50), "salary", time.UnixMilli(4000))
	if err := repo.InsertTransaction(ctx, original); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := transactions.UpdateTransaction(ctx, original, core.CashOut, decimal.NewFromInt(25), "refund")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Type != core.CashOut || !updated.Amount.Equal(decimal.NewFromInt(25)) || updated.Reason != "refund" {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	stored, err := repo.GetTransaction(ctx, original.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Timestamp != original.Timestamp || stored.DateString != original.DateString {
		t.Fatalf("timestamp or date snapshot moved on update: %+v", stored)
	}
	if stored.Type != core.CashOut || !stored.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("update not persisted: %+v", stored)
	}

	if _, err := transactions.UpdateTransaction(ctx, original, core.CashIn, decimal.Zero, ""); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestClearAllTransactions(t *testing.T) {
	repo := newTestRepo(t)
	accounts := NewAccountService(repo)
	transactions := NewTransactionService(repo)
	ctx := context.Background()

	acc, _ := accounts.CreateAccount(ctx, "Main Account")
	for range 3 {
		if _, err := transactions.AddTransaction(ctx, acc.ID, core.CashIn, decimal.NewFromInt(1), ""); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := transactions.ClearAllTransactions(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err := transactions.GetAllTransactions(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty log, got %d err=%v", len(all), err)
	}

	// The account itself survives a transaction clear.
	if _, err := accounts.GetAccount(ctx, acc.ID); err != nil {
		t.Fatalf("expected account intact, got %v", err)
	}
}
