package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneybook/internal/core"
	"moneybook/internal/storage"
)

// AccountService owns the business rules over accounts: name normalization
// and uniqueness, the cascade on delete, and derived per-account stats.
type AccountService struct {
	repo *storage.Repository
}

func NewAccountService(repo *storage.Repository) *AccountService {
	return &AccountService{repo: repo}
}

// CreateAccount creates an account with the trimmed name. Fails with
// core.ErrDuplicateName when any live account already carries it.
func (s *AccountService) CreateAccount(ctx context.Context, name string) (core.Account, error) {
	trimmed, err := core.NormalizeAccountName(name)
	if err != nil {
		return core.Account{}, err
	}

	if _, err := s.repo.GetAccountByName(ctx, trimmed); err == nil {
		return core.Account{}, core.ErrDuplicateName
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, fmt.Errorf("check account name: %w", err)
	}

	acc := core.NewAccount(trimmed, time.Now())
	if err := s.repo.InsertAccount(ctx, acc); err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created", "id", acc.ID, "name", acc.Name)
	return acc, nil
}

// UpdateAccount renames an account, applying the same uniqueness check but
// excluding the account's own id.
func (s *AccountService) UpdateAccount(ctx context.Context, acc core.Account, newName string) (core.Account, error) {
	trimmed, err := core.NormalizeAccountName(newName)
	if err != nil {
		return core.Account{}, err
	}

	existing, err := s.repo.GetAccountByName(ctx, trimmed)
	if err == nil && existing.ID != acc.ID {
		return core.Account{}, core.ErrDuplicateName
	} else if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, fmt.Errorf("check account name: %w", err)
	}

	now := time.Now()
	if err := s.repo.UpdateAccountName(ctx, acc.ID, trimmed, now); err != nil {
		return core.Account{}, err
	}

	acc.Name = trimmed
	acc.UpdatedAt = now
	slog.InfoContext(ctx, "Account renamed", "id", acc.ID, "name", acc.Name)
	return acc, nil
}

// DeleteAccount removes the account and all its transactions in one SQL
// transaction, so no reader ever observes the account gone with orphan
// transactions left behind.
func (s *AccountService) DeleteAccount(ctx context.Context, acc core.Account) error {
	err := s.repo.ExecTx(ctx, func(q *storage.Queries) error {
		if err := q.DeleteAccountTransactions(ctx, acc.ID); err != nil {
			return err
		}
		return q.DeleteAccount(ctx, acc.ID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "id", acc.ID, "name", acc.Name)
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) GetAllAccounts(ctx context.Context) ([]core.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// GetAccountBalance derives the account's balance from its transaction log.
func (s *AccountService) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	transactions, err := s.repo.ListAccountTransactions(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return core.Balance(transactions), nil
}

// GetAccountWithStats returns balance, transaction count and the most
// recent activity for one account. core.ErrNotFound when the id does not
// resolve.
func (s *AccountService) GetAccountWithStats(ctx context.Context, accountID string) (core.AccountStats, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return core.AccountStats{}, err
	}
	return s.statsFor(ctx, acc)
}

// GetAllAccountsWithStats derives stats for every account, newest account
// first. Per-account reads are independent, so they fan out concurrently.
func (s *AccountService) GetAllAccountsWithStats(ctx context.Context) ([]core.AccountStats, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]core.AccountStats, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, acc := range accounts {
		g.Go(func() error {
			st, err := s.statsFor(gctx, acc)
			if err != nil {
				return err
			}
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// EnsureDefaultAccount resolves the default account by name, creating it on
// first use. The facade routes unscoped legacy writes through it.
func (s *AccountService) EnsureDefaultAccount(ctx context.Context) (core.Account, error) {
	acc, err := s.repo.GetAccountByName(ctx, core.DefaultAccountName)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, err
	}
	return s.CreateAccount(ctx, core.DefaultAccountName)
}

func (s *AccountService) statsFor(ctx context.Context, acc core.Account) (core.AccountStats, error) {
	transactions, err := s.repo.ListAccountTransactions(ctx, acc.ID)
	if err != nil {
		return core.AccountStats{}, err
	}

	stats := core.AccountStats{
		Account:          acc,
		Balance:          core.Balance(transactions),
		TransactionCount: int64(len(transactions)),
	}
	if len(transactions) > 0 {
		last := time.UnixMilli(transactions[0].Timestamp)
		stats.LastTransaction = &last
	}
	return stats, nil
}
