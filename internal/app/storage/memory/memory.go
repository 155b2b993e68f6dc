// Package memory provides the in-memory persistence layer behind the ledger.
// One RWMutex serializes every mutation, which is what makes the combined
// solvency-check/balance-move/history-append visible as a single step to all
// connection handlers.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/novabank/ledger_service/internal/app/domain/account"
	"github.com/novabank/ledger_service/internal/app/domain/transaction"
	"github.com/novabank/ledger_service/internal/app/storage"
)

// Store implements storage.LedgerStore.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
	order    []string
	history  []transaction.Transaction
	seq      uint64
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{accounts: make(map[string]account.Account)}
}

// AccountStore implementation -------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.Name]; exists {
		return account.Account{}, fmt.Errorf("%w: %s", storage.ErrAccountExists, acct.Name)
	}

	acct.CreatedAt = time.Now().UTC()
	s.accounts[acct.Name] = cloneAccount(acct)
	s.order = append(s.order, acct.Name)
	return acct, nil
}

func (s *Store) GetAccount(_ context.Context, name string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[name]
	if !ok {
		return account.Account{}, fmt.Errorf("%w: %s", storage.ErrUnknownAccount, name)
	}
	return cloneAccount(acct), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.Account, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, cloneAccount(s.accounts[name]))
	}
	return result, nil
}

func (s *Store) ListAccountNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names, nil
}

// TransactionLog implementation -----------------------------------------------

func (s *Store) AppendTransaction(_ context.Context, tx transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(tx), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]transaction.Transaction, 0, len(s.history))
	for _, tx := range s.history {
		result = append(result, cloneTransaction(tx))
	}
	return result, nil
}

// ApplyTransfer finalizes a verified transfer under the write lock. See the
// storage.LedgerStore contract.
func (s *Store) ApplyTransfer(_ context.Context, tx transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[tx.Sender]
	if !ok {
		return transaction.Transaction{}, fmt.Errorf("%w: %s", storage.ErrUnknownAccount, tx.Sender)
	}
	receiver, ok := s.accounts[tx.Receiver]
	if !ok {
		return transaction.Transaction{}, fmt.Errorf("%w: %s", storage.ErrUnknownAccount, tx.Receiver)
	}

	if sender.Balance.LessThan(tx.Amount) {
		tx.Status = transaction.StatusRejected
		tx.Reason = transaction.ReasonInsufficientFunds
		return s.appendLocked(tx), nil
	}

	// Self-transfer nets to zero; solvency was still required above.
	if tx.Sender != tx.Receiver {
		sender.Balance = sender.Balance.Sub(tx.Amount)
		receiver.Balance = receiver.Balance.Add(tx.Amount)
		s.accounts[tx.Sender] = sender
		s.accounts[tx.Receiver] = receiver
	}

	tx.Status = transaction.StatusAccepted
	tx.Reason = ""
	return s.appendLocked(tx), nil
}

// appendLocked stamps sequence and processed-at and appends. Caller holds the
// write lock, so history order always matches processing order.
func (s *Store) appendLocked(tx transaction.Transaction) transaction.Transaction {
	s.seq++
	tx.Sequence = s.seq
	tx.ProcessedAt = time.Now().UTC()
	s.history = append(s.history, cloneTransaction(tx))
	return tx
}

func cloneAccount(acct account.Account) account.Account {
	if acct.VerificationKey != nil {
		key := make([]byte, len(acct.VerificationKey))
		copy(key, acct.VerificationKey)
		acct.VerificationKey = key
	}
	return acct
}

func cloneTransaction(tx transaction.Transaction) transaction.Transaction {
	if tx.Signature != nil {
		sig := make([]byte, len(tx.Signature))
		copy(sig, tx.Signature)
		tx.Signature = sig
	}
	return tx
}
