package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CashIn  TransactionType = "cash_in"
	CashOut TransactionType = "cash_out"

	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	// DefaultAccountName is the account created for transactions that
	// predate the account concept.
	DefaultAccountName = "Main Account"

	// DefaultReason is stored when a transaction is created with a blank
	// reason through the legacy path.
	DefaultReason = "No reason provided"
)

type (
	TransactionType string

	Theme string

	Account struct {
		ID        string
		Name      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID        string
		AccountID string
		Type      TransactionType
		Amount    decimal.Decimal
		Reason    string
		// DateString is a human-readable snapshot of the creation time,
		// stored verbatim rather than derived at read time.
		DateString string
		// Timestamp is the epoch-milliseconds sort key. Immutable.
		Timestamp int64
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// AccountStats is the derived view of a single account: balance and
	// activity are always recomputed from the transaction log.
	AccountStats struct {
		Account          Account
		Balance          decimal.Decimal
		TransactionCount int64
		LastTransaction  *time.Time
	}

	// LastAmounts holds the amount of the single most recent transaction
	// per type, zero when no transaction of that type exists.
	LastAmounts struct {
		LastCashIn  decimal.Decimal
		LastCashOut decimal.Decimal
	}
)

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrEmptyAccountName       = errors.New("account name cannot be empty")
	ErrDuplicateName          = errors.New("account name already in use")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrNotFound               = errors.New("not found")
	ErrInvalidTheme           = errors.New("invalid theme")
)

func (t TransactionType) Validate() error {
	switch t {
	case CashIn, CashOut:
		return nil
	}
	return ErrInvalidTransactionType
}

func (t Theme) Validate() error {
	switch t {
	case ThemeLight, ThemeDark:
		return nil
	}
	return ErrInvalidTheme
}

func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeAccountName trims surrounding whitespace and validates that a
// non-empty name remains. Uniqueness is checked at the service layer.
func NormalizeAccountName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptyAccountName
	}
	return trimmed, nil
}

// NewAccount builds a new account record with a fresh id and bookkeeping
// timestamps. The name must already be normalized.
func NewAccount(name string, now time.Time) Account {
	return Account{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTransaction builds a new transaction record stamped at now: fresh id,
// timestamp sort key and the verbatim date string snapshot.
func NewTransaction(accountID string, typ TransactionType, amount decimal.Decimal, reason string, now time.Time) Transaction {
	return Transaction{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Type:       typ,
		Amount:     amount,
		Reason:     strings.TrimSpace(reason),
		DateString: FormatDate(now),
		Timestamp:  now.UnixMilli(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FormatDate renders the human-readable creation-time snapshot.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006, 3:04:05 PM")
}

// Balance derives the signed sum of a transaction set: cash_in adds,
// cash_out subtracts. Balance is never stored, only derived.
func Balance(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		switch tx.Type {
		case CashIn:
			total = total.Add(tx.Amount)
		case CashOut:
			total = total.Sub(tx.Amount)
		}
	}
	return total
}
