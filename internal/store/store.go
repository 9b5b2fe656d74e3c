// Package store is the legacy-shaped facade over the relational layer. It
// exists for the call sites that still expect the flat {balance,
// transactions[]} shape and can be deleted once they all consume the
// services directly.
package store

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneybook/internal/core"
	"moneybook/internal/migration"
	"moneybook/internal/services"
	"moneybook/internal/storage"
)

// Data is the flat legacy shape: the derived global balance plus the full
// transaction list, most recent first.
type Data struct {
	Balance      decimal.Decimal
	Transactions []core.Transaction
}

type Store struct {
	accounts     *services.AccountService
	transactions *services.TransactionService
	prefs        *services.Preferences
	engine       *migration.Engine
}

func New(repo *storage.Repository) *Store {
	return &Store{
		accounts:     services.NewAccountService(repo),
		transactions: services.NewTransactionService(repo),
		prefs:        services.NewPreferences(repo),
		engine:       migration.NewEngine(repo),
	}
}

// Initialize runs the migration engine. Idempotent: the engine's completion
// flags make it safe to call on every screen mount.
func (s *Store) Initialize(ctx context.Context) error {
	return s.engine.Run(ctx)
}

// LoadData recomputes the balance and fetches the full transaction list.
// The two reads are independent and run concurrently.
func (s *Store) LoadData(ctx context.Context) (Data, error) {
	var data Data

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.transactions.GetCurrentBalance(gctx)
		if err != nil {
			return err
		}
		data.Balance = balance
		return nil
	})
	g.Go(func() error {
		transactions, err := s.transactions.GetAllTransactions(gctx)
		if err != nil {
			return err
		}
		data.Transactions = transactions
		return nil
	})
	if err := g.Wait(); err != nil {
		return Data{}, err
	}
	return data, nil
}

// CashIn records an unscoped deposit against the default account.
func (s *Store) CashIn(ctx context.Context, amount decimal.Decimal, reason string) (core.Transaction, error) {
	acc, err := s.accounts.EnsureDefaultAccount(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.transactions.AddTransaction(ctx, acc.ID, core.CashIn, amount, reason)
}

// CashOut records a withdrawal against the default account. The
// insufficient-balance guard lives here, not in the service layer: the
// requested amount is compared against the freshly recomputed balance
// before anything is written.
func (s *Store) CashOut(ctx context.Context, amount decimal.Decimal, reason string) (core.Transaction, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.Transaction{}, err
	}

	balance, err := s.transactions.GetCurrentBalance(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if amount.GreaterThan(balance) {
		return core.Transaction{}, core.ErrInsufficientBalance
	}

	acc, err := s.accounts.EnsureDefaultAccount(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.transactions.AddTransaction(ctx, acc.ID, core.CashOut, amount, reason)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction, typ core.TransactionType, amount decimal.Decimal, reason string) (core.Transaction, error) {
	return s.transactions.UpdateTransaction(ctx, tx, typ, amount, reason)
}

func (s *Store) DeleteTransaction(ctx context.Context, tx core.Transaction) error {
	return s.transactions.DeleteTransaction(ctx, tx)
}

func (s *Store) GetTheme(ctx context.Context) (core.Theme, error) {
	return s.prefs.GetTheme(ctx)
}

func (s *Store) SetTheme(ctx context.Context, theme core.Theme) error {
	return s.prefs.SetTheme(ctx, theme)
}

// ForceMigration wipes the relational data and reruns every migration phase.
// Destructive; exposed for development and reset tooling only.
func (s *Store) ForceMigration(ctx context.Context) error {
	return s.engine.ForceMigration(ctx)
}
