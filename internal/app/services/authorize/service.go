// Package authorize implements the transaction authorization engine: it
// re-encodes the submitted fields canonically, verifies the signature against
// the sender's registered key, and hands verified transfers to the ledger.
package authorize

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/app/domain/transaction"
	"github.com/novabank/ledger_service/internal/app/metrics"
	"github.com/novabank/ledger_service/internal/app/services/ledger"
	"github.com/novabank/ledger_service/internal/app/services/registry"
	"github.com/novabank/ledger_service/internal/signing"
	"github.com/novabank/ledger_service/pkg/logger"
)

// ErrInvalidAmount marks a non-positive transfer amount. This is a request
// validation failure and never reaches the history.
var ErrInvalidAmount = errors.New("amount must be positive")

// Request carries the raw transaction fields as submitted. The engine only
// trusts these fields plus the signature; any client-supplied encoding is
// ignored and the message is re-encoded server-side.
type Request struct {
	Sender    string
	Receiver  string
	Amount    decimal.Decimal
	IssuedAt  string
	Signature []byte
}

// Service is the authorization engine.
type Service struct {
	registry *registry.Service
	ledger   *ledger.Service
	log      *logger.Logger
}

// New constructs the engine.
func New(reg *registry.Service, led *ledger.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("authorize")
	}
	return &Service{registry: reg, ledger: led, log: log}
}

// Authorize processes one transfer request to its terminal state.
//
// Validation failures (bad amount, unknown party) return an error and record
// nothing. Past validation, every request finalizes as exactly one appended
// transaction: rejected on signature, rejected on insufficiency, or accepted
// with the balances moved. Verification runs before any lock is taken.
func (s *Service) Authorize(ctx context.Context, req Request) (transaction.Transaction, error) {
	if !req.Amount.IsPositive() {
		return transaction.Transaction{}, ErrInvalidAmount
	}

	sender, err := s.registry.Lookup(ctx, req.Sender)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if _, err := s.registry.Lookup(ctx, req.Receiver); err != nil {
		return transaction.Transaction{}, err
	}

	verifier, err := signing.ParseVerificationKey(sender.VerificationKey)
	if err != nil {
		// Registration validated the key; a parse failure here means the
		// store is corrupt, not that the request is bad.
		return transaction.Transaction{}, err
	}

	message := signing.EncodeTransaction(req.Sender, req.Receiver, req.Amount, req.IssuedAt)
	start := time.Now()
	verified := verifier.Verify(message, req.Signature)
	metrics.ObserveVerification(time.Since(start))

	rec := transaction.Transaction{
		ID:        uuid.NewString(),
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		Amount:    req.Amount,
		IssuedAt:  req.IssuedAt,
		Signature: req.Signature,
	}

	if !verified {
		finalized, err := s.ledger.RecordRejection(ctx, rec, transaction.ReasonBadSignature)
		if err != nil {
			return transaction.Transaction{}, err
		}
		metrics.TransactionFinalized(string(finalized.Status))
		return finalized, nil
	}

	start = time.Now()
	finalized, err := s.ledger.AttemptTransfer(ctx, rec)
	metrics.ObserveTransfer(time.Since(start))
	if err != nil {
		return transaction.Transaction{}, err
	}
	metrics.TransactionFinalized(string(finalized.Status))
	return finalized, nil
}
