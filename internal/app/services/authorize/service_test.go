package authorize_test

import (
	"context"
	"crypto/rsa"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/novabank/ledger_service/internal/app"
	"github.com/novabank/ledger_service/internal/app/domain/transaction"
	"github.com/novabank/ledger_service/internal/app/services/authorize"
	"github.com/novabank/ledger_service/internal/app/storage"
	"github.com/novabank/ledger_service/internal/signing"
	"github.com/novabank/ledger_service/pkg/logger"
	"github.com/novabank/ledger_service/pkg/testutil"
)

type fixture struct {
	app      *app.Application
	aliceKey *rsa.PrivateKey
	bobKey   *rsa.PrivateKey
}

// newFixture registers alice and bob with 1000 each.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		app: app.New(app.Options{
			StartingBalance: decimal.NewFromInt(1000),
			Log:             logger.New("test", io.Discard, logrus.ErrorLevel),
		}),
		aliceKey: testutil.SigningKey(t),
		bobKey:   testutil.OtherSigningKey(t),
	}
	ctx := context.Background()
	if _, err := f.app.Registry.Register(ctx, "alice", testutil.VerificationKeyPEM(t, f.aliceKey)); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := f.app.Registry.Register(ctx, "bob", testutil.VerificationKeyPEM(t, f.bobKey)); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	return f
}

// signedRequest builds a transfer request signed with key.
func signedRequest(t *testing.T, key *rsa.PrivateKey, sender, receiver, amount string) authorize.Request {
	t.Helper()
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	issuedAt := "2025-09-03T10:00:00Z"
	sig, err := signing.Sign(key, signing.EncodeTransaction(sender, receiver, amt, issuedAt))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return authorize.Request{Sender: sender, Receiver: receiver, Amount: amt, IssuedAt: issuedAt, Signature: sig}
}

func (f *fixture) balance(t *testing.T, name string) decimal.Decimal {
	t.Helper()
	bal, err := f.app.Ledger.Balance(context.Background(), name)
	if err != nil {
		t.Fatalf("balance %s: %v", name, err)
	}
	return bal
}

func TestAuthorizeAccepted(t *testing.T) {
	f := newFixture(t)

	rec, err := f.app.Engine.Authorize(context.Background(), signedRequest(t, f.aliceKey, "alice", "bob", "200"))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !rec.Accepted() {
		t.Fatalf("status = %s (%s), want accepted", rec.Status, rec.Reason)
	}
	if rec.ID == "" || rec.ProcessedAt.IsZero() {
		t.Fatalf("record not finalized: %+v", rec)
	}
	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("alice = %s, want 800", got)
	}
	if got := f.balance(t, "bob"); !got.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("bob = %s, want 1200", got)
	}
}

func TestAuthorizeWrongSignerRejected(t *testing.T) {
	f := newFixture(t)

	// Transfer claims to be from alice but is signed with bob's key.
	req := signedRequest(t, f.bobKey, "alice", "bob", "200")
	rec, err := f.app.Engine.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if rec.Status != transaction.StatusRejected || rec.Reason != transaction.ReasonBadSignature {
		t.Fatalf("got status=%s reason=%q, want signature rejection", rec.Status, rec.Reason)
	}
	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("rejected signature moved funds: alice=%s", got)
	}
	if got := f.balance(t, "bob"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("rejected signature moved funds: bob=%s", got)
	}
}

func TestAuthorizeInsufficientRejected(t *testing.T) {
	f := newFixture(t)

	rec, err := f.app.Engine.Authorize(context.Background(), signedRequest(t, f.aliceKey, "alice", "bob", "5000"))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if rec.Status != transaction.StatusRejected || rec.Reason != transaction.ReasonInsufficientFunds {
		t.Fatalf("got status=%s reason=%q, want insufficiency rejection", rec.Status, rec.Reason)
	}
	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balances changed: alice=%s", got)
	}
}

func TestAuthorizeTamperedAmount(t *testing.T) {
	f := newFixture(t)

	// Sign 200, submit 900 with the old signature.
	req := signedRequest(t, f.aliceKey, "alice", "bob", "200")
	req.Amount = decimal.NewFromInt(900)

	rec, err := f.app.Engine.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if rec.Status != transaction.StatusRejected || rec.Reason != transaction.ReasonBadSignature {
		t.Fatalf("tampered amount was not rejected on signature: %+v", rec)
	}
	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("tampered transfer moved funds: alice=%s", got)
	}
}

func TestAuthorizeValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := signedRequest(t, f.aliceKey, "alice", "bob", "200")
	req.Amount = decimal.NewFromInt(-5)
	if _, err := f.app.Engine.Authorize(ctx, req); !errors.Is(err, authorize.ErrInvalidAmount) {
		t.Fatalf("negative amount: err = %v, want ErrInvalidAmount", err)
	}

	req = signedRequest(t, f.aliceKey, "alice", "bob", "200")
	req.Amount = decimal.Zero
	if _, err := f.app.Engine.Authorize(ctx, req); !errors.Is(err, authorize.ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v, want ErrInvalidAmount", err)
	}

	req = signedRequest(t, f.aliceKey, "alice", "ghost", "200")
	if _, err := f.app.Engine.Authorize(ctx, req); !errors.Is(err, storage.ErrUnknownAccount) {
		t.Fatalf("unknown receiver: err = %v, want ErrUnknownAccount", err)
	}

	req = signedRequest(t, f.aliceKey, "ghost", "bob", "200")
	if _, err := f.app.Engine.Authorize(ctx, req); !errors.Is(err, storage.ErrUnknownAccount) {
		t.Fatalf("unknown sender: err = %v, want ErrUnknownAccount", err)
	}

	// None of the validation failures may appear in the history.
	history, err := f.app.Ledger.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("validation failures were recorded: %+v", history)
	}
}

func TestAuthorizeSelfTransfer(t *testing.T) {
	f := newFixture(t)

	rec, err := f.app.Engine.Authorize(context.Background(), signedRequest(t, f.aliceKey, "alice", "alice", "100"))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !rec.Accepted() {
		t.Fatalf("self-transfer rejected: %+v", rec)
	}
	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("self-transfer changed balance: %s", got)
	}
}

func TestAuthorizeHistoryOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.app.Engine.Authorize(ctx, signedRequest(t, f.aliceKey, "alice", "bob", "200")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := f.app.Engine.Authorize(ctx, signedRequest(t, f.bobKey, "bob", "alice", "50")); err != nil {
		t.Fatalf("second: %v", err)
	}

	history, err := f.app.Ledger.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Sender != "alice" || history[1].Sender != "bob" {
		t.Fatalf("history out of order: %+v", history)
	}
	if history[1].ProcessedAt.Before(history[0].ProcessedAt) {
		t.Fatalf("processed_at ordering violated")
	}
	if history[0].Sequence >= history[1].Sequence {
		t.Fatalf("sequence ordering violated")
	}
}

// Scenario: two concurrent signed 600-unit transfers from a balance of 800.
// Exactly one is accepted; the other is a recorded insufficiency rejection.
func TestAuthorizeConcurrentDoubleSpend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Drop alice to 800 first.
	if _, err := f.app.Engine.Authorize(ctx, signedRequest(t, f.aliceKey, "alice", "bob", "200")); err != nil {
		t.Fatalf("setup transfer: %v", err)
	}

	reqs := []authorize.Request{
		signedRequest(t, f.aliceKey, "alice", "bob", "600"),
		signedRequest(t, f.aliceKey, "alice", "bob", "600"),
	}

	var wg sync.WaitGroup
	results := make([]transaction.Transaction, len(reqs))
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req authorize.Request) {
			defer wg.Done()
			rec, err := f.app.Engine.Authorize(ctx, req)
			if err != nil {
				t.Errorf("authorize %d: %v", i, err)
				return
			}
			results[i] = rec
		}(i, req)
	}
	wg.Wait()

	accepted, rejected := 0, 0
	for _, rec := range results {
		switch rec.Status {
		case transaction.StatusAccepted:
			accepted++
		case transaction.StatusRejected:
			rejected++
			if rec.Reason != transaction.ReasonInsufficientFunds {
				t.Fatalf("loser rejected for %q, want insufficiency", rec.Reason)
			}
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 1/1", accepted, rejected)
	}

	alice := f.balance(t, "alice")
	if alice.IsNegative() {
		t.Fatalf("alice went negative: %s", alice)
	}
	if !alice.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("alice = %s, want 200", alice)
	}
}
