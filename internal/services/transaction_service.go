package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/storage"
)

// TransactionService owns the business rules over the transaction log.
// It performs no balance sufficiency check: that guard is a caller-side
// policy enforced by the facade, and calling this layer directly can drive
// a balance negative.
type TransactionService struct {
	repo *storage.Repository
}

func NewTransactionService(repo *storage.Repository) *TransactionService {
	return &TransactionService{repo: repo}
}

// AddTransaction validates the input, stamps the record at now and persists
// it. The returned record carries the assigned id and date snapshot.
func (s *TransactionService) AddTransaction(ctx context.Context, accountID string, typ core.TransactionType, amount decimal.Decimal, reason string) (core.Transaction, error) {
	if err := typ.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := core.ValidateAmount(amount); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return core.Transaction{}, err
	}

	tx := core.NewTransaction(accountID, typ, amount, reason, time.Now())
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID, "account_id", accountID, "type", tx.Type, "amount", tx.Amount.String())
	return tx, nil
}

// GetAllTransactions returns the full log, most recent first.
func (s *TransactionService) GetAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// GetAccountTransactions returns one account's log, most recent first.
func (s *TransactionService) GetAccountTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	return s.repo.ListAccountTransactions(ctx, accountID)
}

// GetCurrentBalance derives the global balance over every transaction.
func (s *TransactionService) GetCurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	transactions, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.Balance(transactions), nil
}

// GetAccountBalance derives one account's balance.
func (s *TransactionService) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	transactions, err := s.repo.ListAccountTransactions(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return core.Balance(transactions), nil
}

// GetLastTransactionAmounts returns the amount of the single most recent
// transaction per type across all accounts, zero when none exists.
func (s *TransactionService) GetLastTransactionAmounts(ctx context.Context) (core.LastAmounts, error) {
	return s.lastAmounts(ctx, "")
}

// GetAccountLastTransactionAmounts is the account-scoped variant.
func (s *TransactionService) GetAccountLastTransactionAmounts(ctx context.Context, accountID string) (core.LastAmounts, error) {
	return s.lastAmounts(ctx, accountID)
}

func (s *TransactionService) lastAmounts(ctx context.Context, accountID string) (core.LastAmounts, error) {
	amounts := core.LastAmounts{LastCashIn: decimal.Zero, LastCashOut: decimal.Zero}

	if tx, err := s.repo.LatestTransactionByType(ctx, accountID, core.CashIn); err == nil {
		amounts.LastCashIn = tx.Amount
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.LastAmounts{}, err
	}

	if tx, err := s.repo.LatestTransactionByType(ctx, accountID, core.CashOut); err == nil {
		amounts.LastCashOut = tx.Amount
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.LastAmounts{}, err
	}

	return amounts, nil
}

// UpdateTransaction rewrites type, amount and reason in place. The
// timestamp sort key and the date snapshot never move.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction, typ core.TransactionType, amount decimal.Decimal, reason string) (core.Transaction, error) {
	if err := typ.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := core.ValidateAmount(amount); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now()
	if err := s.repo.UpdateTransaction(ctx, tx.ID, typ, amount, reason, now); err != nil {
		return core.Transaction{}, err
	}

	tx.Type = typ
	tx.Amount = amount
	tx.Reason = reason
	tx.UpdatedAt = now
	slog.InfoContext(ctx, "Transaction updated", "id", tx.ID, "type", tx.Type, "amount", tx.Amount.String())
	return tx, nil
}

// DeleteTransaction permanently removes one record. Dependent balances are
// derived, so there is nothing further to recompute here.
func (s *TransactionService) DeleteTransaction(ctx context.Context, tx core.Transaction) error {
	if err := s.repo.DeleteTransaction(ctx, tx.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", tx.ID)
	return nil
}

// ClearAllTransactions permanently empties the log. Migration and reset
// paths only.
func (s *TransactionService) ClearAllTransactions(ctx context.Context) error {
	if err := s.repo.DeleteAllTransactions(ctx); err != nil {
		return err
	}
	slog.WarnContext(ctx, "All transactions cleared")
	return nil
}
