package storage

import (
	"context"
	"errors"

	"github.com/novabank/ledger_service/internal/app/domain/account"
	"github.com/novabank/ledger_service/internal/app/domain/transaction"
)

// Typed store outcomes. Callers branch with errors.Is; nothing in the core
// signals these through logs or panics.
var (
	ErrAccountExists  = errors.New("account already exists")
	ErrUnknownAccount = errors.New("unknown account")
)

// AccountStore holds registered accounts. Accounts are created once and
// never deleted; listing preserves registration order.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccount(ctx context.Context, name string) (account.Account, error)
	ListAccounts(ctx context.Context) ([]account.Account, error)
	ListAccountNames(ctx context.Context) ([]string, error)
}

// TransactionLog is the append-only transaction history. Appends assign the
// sequence number and processed-at timestamp; records are immutable once
// appended and listed in append order.
type TransactionLog interface {
	AppendTransaction(ctx context.Context, tx transaction.Transaction) (transaction.Transaction, error)
	ListTransactions(ctx context.Context) ([]transaction.Transaction, error)
}

// LedgerStore combines account state and history with the one atomic
// mutation the ledger performs.
type LedgerStore interface {
	AccountStore
	TransactionLog

	// ApplyTransfer finalizes a signature-verified transfer in a single
	// critical section: it checks the sender's solvency, either moves the
	// amount and marks the record accepted or marks it rejected with the
	// insufficiency reason, and appends the finalized record to the
	// history. No observer sees a debited-but-uncredited balance or an
	// applied-but-unrecorded transfer. Returns ErrUnknownAccount if either
	// party is missing; insufficiency is a recorded outcome, not an error.
	ApplyTransfer(ctx context.Context, tx transaction.Transaction) (transaction.Transaction, error)
}
