// Package httpapi exposes the read-only operator API: account and history
// inspection, health, and Prometheus metrics. It mutates nothing; all writes
// go through the TCP protocol.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/novabank/ledger_service/internal/app/metrics"
	"github.com/novabank/ledger_service/internal/app/services/ledger"
	"github.com/novabank/ledger_service/internal/app/services/registry"
	"github.com/novabank/ledger_service/internal/protocol"
)

type handler struct {
	registry *registry.Service
	ledger   *ledger.Service
}

// NewRouter returns the operator API router.
func NewRouter(reg *registry.Service, led *ledger.Service) *mux.Router {
	h := &handler{registry: reg, ledger: led}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/accounts", h.listAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{name}", h.getAccount).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	names, err := h.registry.ListNames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	acct, err := h.registry.Lookup(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    acct.Name,
		"balance": acct.Balance.String(),
	})
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	history, err := h.ledger.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	records := make([]protocol.TransactionRecord, 0, len(history))
	for _, tx := range history {
		records = append(records, protocol.NewTransactionRecord(tx))
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
