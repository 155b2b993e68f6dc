// Package registry implements the identity registry: account registration,
// login confirmation, and lookups of verification keys and balances.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/app/domain/account"
	"github.com/novabank/ledger_service/internal/app/storage"
	"github.com/novabank/ledger_service/internal/signing"
	"github.com/novabank/ledger_service/pkg/logger"
)

// Service manages account identities. The verification key is validated and
// fixed at registration; repeat registration is a conflict, never a key
// replacement.
type Service struct {
	store           storage.AccountStore
	startingBalance decimal.Decimal
	log             *logger.Logger
}

// New constructs the registry. Every new account starts with startingBalance.
func New(store storage.AccountStore, startingBalance decimal.Decimal, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("registry")
	}
	return &Service{store: store, startingBalance: startingBalance, log: log}
}

// Register creates an account with the given PEM verification key. Fails
// with storage.ErrAccountExists if the name is taken; the first registered
// key stays authoritative.
func (s *Service) Register(ctx context.Context, name string, verificationKey []byte) (account.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return account.Account{}, fmt.Errorf("name is required")
	}
	if _, err := signing.ParseVerificationKey(verificationKey); err != nil {
		return account.Account{}, err
	}

	created, err := s.store.CreateAccount(ctx, account.Account{
		Name:            name,
		VerificationKey: verificationKey,
		Balance:         s.startingBalance,
	})
	if err != nil {
		return account.Account{}, err
	}
	s.log.WithField("account", name).Info("account registered")
	return created, nil
}

// Login confirms an existing account. It mutates nothing and fails with
// storage.ErrUnknownAccount for unregistered names.
func (s *Service) Login(ctx context.Context, name string) (account.Account, error) {
	acct, err := s.store.GetAccount(ctx, strings.TrimSpace(name))
	if err != nil {
		return account.Account{}, err
	}
	s.log.WithField("account", acct.Name).Info("account login")
	return acct, nil
}

// Lookup returns the account view for name.
func (s *Service) Lookup(ctx context.Context, name string) (account.Account, error) {
	return s.store.GetAccount(ctx, name)
}

// ListNames returns all account names in registration order.
func (s *Service) ListNames(ctx context.Context) ([]string, error) {
	return s.store.ListAccountNames(ctx)
}
