package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/novabank/ledger_service/internal/app/domain/transaction"
	"github.com/novabank/ledger_service/internal/app/httpapi"
	"github.com/novabank/ledger_service/internal/app/services/ledger"
	"github.com/novabank/ledger_service/internal/app/services/registry"
	"github.com/novabank/ledger_service/internal/app/storage/memory"
	"github.com/novabank/ledger_service/internal/protocol"
	"github.com/novabank/ledger_service/pkg/logger"
	"github.com/novabank/ledger_service/pkg/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *registry.Service, *ledger.Service) {
	t.Helper()
	store := memory.New()
	log := logger.New("test", io.Discard, logrus.ErrorLevel)
	reg := registry.New(store, decimal.NewFromInt(1000), log)
	led := ledger.New(store, log)
	return httpapi.NewRouter(reg, led), reg, led
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := get(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("health body = %v", body)
	}
}

func TestListAccounts(t *testing.T) {
	h, reg, _ := newTestRouter(t)
	ctx := context.Background()

	rec := get(t, h, "/api/v1/accounts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty registry body = %q, want []", got)
	}

	key := testutil.VerificationKeyPEM(t, testutil.SigningKey(t))
	for _, name := range []string{"alice", "bob"} {
		if _, err := reg.Register(ctx, name, key); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	rec = get(t, h, "/api/v1/accounts")
	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("names = %v, want [alice bob]", names)
	}
}

func TestGetAccount(t *testing.T) {
	h, reg, _ := newTestRouter(t)

	key := testutil.VerificationKeyPEM(t, testutil.SigningKey(t))
	if _, err := reg.Register(context.Background(), "alice", key); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := get(t, h, "/api/v1/accounts/alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if body["name"] != "alice" || body["balance"] != "1000" {
		t.Fatalf("account body = %v", body)
	}

	if rec := get(t, h, "/api/v1/accounts/mallory"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListTransactions(t *testing.T) {
	h, reg, led := newTestRouter(t)
	ctx := context.Background()

	key := testutil.VerificationKeyPEM(t, testutil.SigningKey(t))
	for _, name := range []string{"alice", "bob"} {
		if _, err := reg.Register(ctx, name, key); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	rec := get(t, h, "/api/v1/transactions")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty history body = %q, want []", got)
	}

	tx := transaction.Transaction{
		ID:       "tx-1",
		Sender:   "alice",
		Receiver: "bob",
		Amount:   decimal.NewFromInt(200),
		IssuedAt: "2026-01-01T00:00:00Z",
	}
	if _, err := led.AttemptTransfer(ctx, tx); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	rec = get(t, h, "/api/v1/transactions")
	var records []protocol.TransactionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history length = %d, want 1", len(records))
	}
	if records[0].Status != "accepted" || records[0].Amount != "200" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ledger_") {
		t.Fatalf("metrics output missing ledger collectors")
	}
}
