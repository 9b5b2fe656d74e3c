package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneybook/internal/core"
)

const accountColumns = "id, name, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		acc                  core.Account
		createdAt, updatedAt int64
	)
	if err := row.Scan(&acc.ID, &acc.Name, &createdAt, &updatedAt); err != nil {
		return core.Account{}, err
	}
	acc.CreatedAt = time.UnixMilli(createdAt)
	acc.UpdatedAt = time.UnixMilli(updatedAt)
	return acc, nil
}

func (q *Queries) InsertAccount(ctx context.Context, acc core.Account) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO accounts (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		acc.ID, acc.Name, acc.CreatedAt.UnixMilli(), acc.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount returns core.ErrNotFound when the id does not resolve.
func (q *Queries) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

// GetAccountByName matches the exact (already trimmed) name and returns
// core.ErrNotFound when no live account carries it.
func (q *Queries) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE name = ? LIMIT 1", name)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account by name: %w", err)
	}
	return acc, nil
}

// ListAccounts returns every account, newest first.
func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// OldestAccount resolves the default replay target for the backfill
// migration. Returns core.ErrNotFound when no account exists yet.
func (q *Queries) OldestAccount(ctx context.Context) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC LIMIT 1")
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("oldest account: %w", err)
	}
	return acc, nil
}

func (q *Queries) UpdateAccountName(ctx context.Context, id, name string, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE accounts SET name = ?, updated_at = ? WHERE id = ?",
		name, updatedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update account name: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account name: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAccount(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAllAccounts(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM accounts"); err != nil {
		return fmt.Errorf("delete all accounts: %w", err)
	}
	return nil
}
