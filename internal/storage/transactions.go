package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

const transactionColumns = "id, account_id, type, amount, reason, date, timestamp, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		accountID            sql.NullString
		amount               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&tx.ID, &accountID, &tx.Type, &amount, &tx.Reason,
		&tx.DateString, &tx.Timestamp, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.AccountID = accountID.String
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	tx.CreatedAt = time.UnixMilli(createdAt)
	tx.UpdatedAt = time.UnixMilli(updatedAt)
	return tx, nil
}

func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func (q *Queries) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, type, amount, reason, date, timestamp, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, nullableID(tx.AccountID), string(tx.Type), tx.Amount.String(), tx.Reason,
		tx.DateString, tx.Timestamp, tx.CreatedAt.UnixMilli(), tx.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// ListTransactions returns every transaction, most recent first.
func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY timestamp DESC")
}

// ListAccountTransactions returns one account's transactions, most recent first.
func (q *Queries) ListAccountTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE account_id = ? ORDER BY timestamp DESC",
		accountID)
}

// ListUnscopedTransactions returns rows that predate the account concept.
func (q *Queries) ListUnscopedTransactions(ctx context.Context) ([]core.Transaction, error) {
	return q.listTransactions(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE account_id IS NULL OR account_id = '' ORDER BY timestamp ASC")
}

// LatestTransactionByType returns the single most recent transaction of the
// given type, top-1 after descending timestamp sort. accountID scopes the
// lookup when non-empty. Returns core.ErrNotFound when none exists.
func (q *Queries) LatestTransactionByType(ctx context.Context, accountID string, typ core.TransactionType) (core.Transaction, error) {
	var row *sql.Row
	if accountID == "" {
		row = q.db.QueryRowContext(ctx,
			"SELECT "+transactionColumns+" FROM transactions WHERE type = ? ORDER BY timestamp DESC LIMIT 1",
			string(typ))
	} else {
		row = q.db.QueryRowContext(ctx,
			"SELECT "+transactionColumns+" FROM transactions WHERE type = ? AND account_id = ? ORDER BY timestamp DESC LIMIT 1",
			string(typ), accountID)
	}
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("latest transaction by type: %w", err)
	}
	return tx, nil
}

func (q *Queries) CountAccountTransactions(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE account_id = ?", accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count account transactions: %w", err)
	}
	return count, nil
}

// UpdateTransaction rewrites the mutable fields in place. The timestamp and
// date snapshot never move.
func (q *Queries) UpdateTransaction(ctx context.Context, id string, typ core.TransactionType, amount decimal.Decimal, reason string, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET type = ?, amount = ?, reason = ?, updated_at = ? WHERE id = ?",
		string(typ), amount.String(), reason, updatedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteAccountTransactions(ctx context.Context, accountID string) error {
	if _, err := q.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}
	return nil
}

func (q *Queries) DeleteAllTransactions(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}
	return nil
}
