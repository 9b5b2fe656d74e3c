// Package migration moves persisted data forward through the storage
// generations: the legacy flat blob, then the relational tables, then
// account-scoped rows. Each phase is gated by a persisted completion flag so
// repeated application starts do no repeated work.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/storage"
)

const (
	// LegacyDataKey is the fixed key under which the pre-relational app
	// stored its single serialized blob. The blob stays readable forever;
	// the completion flag is what prevents re-replay.
	LegacyDataKey = "@MoneyBook:data"

	legacyFlagKey  = "legacy_migration_completed"
	accountFlagKey = "account_migration_completed"

	flagValue = "true"
)

// legacyData mirrors the flat {balance, transactions[]} JSON shape.
// The stored balance is ignored on replay: balances are always rederived
// from the transaction log.
type legacyData struct {
	Balance      float64             `json:"balance"`
	Transactions []legacyTransaction `json:"transactions"`
}

type legacyTransaction struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	Date      string  `json:"date"`
	Timestamp int64   `json:"timestamp"`
}

type Engine struct {
	repo *storage.Repository
}

func NewEngine(repo *storage.Repository) *Engine {
	return &Engine{repo: repo}
}

// Run executes the pending phases in order. Idempotent: safe to call on
// every application start.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.runLegacyPhase(ctx); err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	}
	if err := e.runAccountPhase(ctx); err != nil {
		return fmt.Errorf("account migration: %w", err)
	}
	return nil
}

// runLegacyPhase replays the legacy flat blob into the relational tables.
// The replay and its completion flag commit in one SQL transaction: an
// interrupted run leaves no partial rows, and a committed run can never lose
// its flag and replay the blob a second time.
func (e *Engine) runLegacyPhase(ctx context.Context) error {
	done, err := e.flagSet(ctx, legacyFlagKey)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	raw, ok, err := e.repo.GetValue(ctx, LegacyDataKey)
	if err != nil {
		return err
	}
	if !ok {
		slog.InfoContext(ctx, "No legacy data found, nothing to migrate")
		e.markComplete(ctx, legacyFlagKey)
		return nil
	}

	var legacy legacyData
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return fmt.Errorf("decode legacy blob: %w", err)
	}

	err = e.repo.ExecTx(ctx, func(q *storage.Queries) error {
		acc, err := resolveNamedAccount(ctx, q, core.DefaultAccountName)
		if err != nil {
			return err
		}
		for _, old := range legacy.Transactions {
			if err := replayLegacyTransaction(ctx, q, acc.ID, core.TransactionType(old.Type), decimal.NewFromFloat(old.Amount), old.Reason); err != nil {
				return err
			}
		}
		// The flag commits with the replayed rows. Re-running this phase
		// is not a no-op, so the flag must never be lost while the rows
		// survive; an interrupted run rolls back both together.
		return q.SetValue(ctx, legacyFlagKey, flagValue)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Legacy data migrated",
		"transactions", len(legacy.Transactions), "account", core.DefaultAccountName)
	return nil
}

// runAccountPhase rewrites rows that predate the account concept. The
// storage layer cannot add a required reference to existing rows in place,
// so each unscoped row is deleted and recreated with the account populated,
// preserving type, amount and reason. One SQL transaction covers the whole
// rewrite.
func (e *Engine) runAccountPhase(ctx context.Context) error {
	done, err := e.flagSet(ctx, accountFlagKey)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	unscoped, err := e.repo.ListUnscopedTransactions(ctx)
	if err != nil {
		return err
	}
	if len(unscoped) == 0 {
		e.markComplete(ctx, accountFlagKey)
		return nil
	}

	err = e.repo.ExecTx(ctx, func(q *storage.Queries) error {
		acc, err := resolveReplayAccount(ctx, q)
		if err != nil {
			return err
		}
		for _, old := range unscoped {
			if err := q.DeleteTransaction(ctx, old.ID); err != nil {
				return err
			}
			// Unlike the legacy replay, the reason is preserved verbatim.
			rec := core.NewTransaction(acc.ID, old.Type, old.Amount, old.Reason, time.Now())
			if err := q.InsertTransaction(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Unscoped transactions rescoped", "transactions", len(unscoped))
	e.markComplete(ctx, accountFlagKey)
	return nil
}

// ForceMigration clears both completion flags, wipes all transactions and
// accounts, and reruns every phase from empty state. Destructive;
// development and reset paths only, never run automatically.
func (e *Engine) ForceMigration(ctx context.Context) error {
	slog.WarnContext(ctx, "Forcing migration rerun, all relational data will be rebuilt")

	err := e.repo.ExecTx(ctx, func(q *storage.Queries) error {
		if err := q.DeleteValue(ctx, legacyFlagKey); err != nil {
			return err
		}
		if err := q.DeleteValue(ctx, accountFlagKey); err != nil {
			return err
		}
		if err := q.DeleteAllTransactions(ctx); err != nil {
			return err
		}
		return q.DeleteAllAccounts(ctx)
	})
	if err != nil {
		return fmt.Errorf("reset migration state: %w", err)
	}

	return e.Run(ctx)
}

func (e *Engine) flagSet(ctx context.Context, key string) (bool, error) {
	value, ok, err := e.repo.GetValue(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && value == flagValue, nil
}

// markComplete persists a completion flag for phases whose re-evaluation
// without the flag is a genuine no-op (no blob to replay, no unscoped rows
// left). A failure here is logged but does not fail the migration: the next
// start re-evaluates and finds nothing to do. The legacy replay must not use
// this; its flag commits inside the replay transaction instead.
func (e *Engine) markComplete(ctx context.Context, key string) {
	if err := e.repo.SetValue(ctx, key, flagValue); err != nil {
		slog.ErrorContext(ctx, "Failed to persist migration flag", "key", key, "error", err)
	}
}

// replayLegacyTransaction persists one legacy record with the same stamping
// rules as a user-created transaction: fresh id, timestamp and date
// snapshot. A blank reason gets the legacy sentinel.
func replayLegacyTransaction(ctx context.Context, q *storage.Queries, accountID string, typ core.TransactionType, amount decimal.Decimal, reason string) error {
	if err := typ.Validate(); err != nil {
		return fmt.Errorf("replay transaction: %w", err)
	}
	if reason == "" {
		reason = core.DefaultReason
	}
	return q.InsertTransaction(ctx, core.NewTransaction(accountID, typ, amount, reason, time.Now()))
}

// resolveNamedAccount finds the account by name or creates it inside the
// phase's transaction.
func resolveNamedAccount(ctx context.Context, q *storage.Queries, name string) (core.Account, error) {
	acc, err := q.GetAccountByName(ctx, name)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, err
	}

	acc = core.NewAccount(name, time.Now())
	if err := q.InsertAccount(ctx, acc); err != nil {
		return core.Account{}, err
	}
	return acc, nil
}

// resolveReplayAccount picks the backfill target: the oldest existing
// account, or a newly created default when none exists.
func resolveReplayAccount(ctx context.Context, q *storage.Queries) (core.Account, error) {
	acc, err := q.OldestAccount(ctx)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, err
	}
	return resolveNamedAccount(ctx, q, core.DefaultAccountName)
}
