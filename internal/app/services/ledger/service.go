// Package ledger owns balances and the transaction history. All balance
// movement funnels through AttemptTransfer; everything else is read-only.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/app/domain/transaction"
	"github.com/novabank/ledger_service/internal/app/storage"
	"github.com/novabank/ledger_service/pkg/logger"
)

// Service is the ledger facade over the store's atomic operations.
type Service struct {
	store storage.LedgerStore
	log   *logger.Logger
}

// New constructs the ledger service.
func New(store storage.LedgerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{store: store, log: log}
}

// AttemptTransfer applies a signature-verified transfer. The store performs
// the solvency check, balance movement and history append in one critical
// section; an unaffordable transfer comes back as a recorded rejection, not
// an error. Returns storage.ErrUnknownAccount if either party is missing.
func (s *Service) AttemptTransfer(ctx context.Context, tx transaction.Transaction) (transaction.Transaction, error) {
	finalized, err := s.store.ApplyTransfer(ctx, tx)
	if err != nil {
		return transaction.Transaction{}, err
	}
	s.log.WithField("transaction_id", finalized.ID).
		WithField("sender", finalized.Sender).
		WithField("receiver", finalized.Receiver).
		WithField("amount", finalized.Amount.String()).
		WithField("status", string(finalized.Status)).
		Info("transfer processed")
	return finalized, nil
}

// RecordRejection appends a transaction that failed before reaching the
// balance check (bad signature). Balances are untouched.
func (s *Service) RecordRejection(ctx context.Context, tx transaction.Transaction, reason string) (transaction.Transaction, error) {
	tx.Status = transaction.StatusRejected
	tx.Reason = reason
	finalized, err := s.store.AppendTransaction(ctx, tx)
	if err != nil {
		return transaction.Transaction{}, err
	}
	s.log.WithField("transaction_id", finalized.ID).
		WithField("sender", finalized.Sender).
		WithField("reason", reason).
		Warn("transaction rejected")
	return finalized, nil
}

// Balance returns the current balance for name.
func (s *Service) Balance(ctx context.Context, name string) (decimal.Decimal, error) {
	acct, err := s.store.GetAccount(ctx, name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return acct.Balance, nil
}

// History returns the full transaction history in processing order.
func (s *Service) History(ctx context.Context) ([]transaction.Transaction, error) {
	return s.store.ListTransactions(ctx)
}
