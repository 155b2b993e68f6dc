// Package dispatch routes decoded protocol requests to the registry and the
// authorization engine and shapes the wire responses. It owns the translation
// from typed service errors to the response taxonomy: validation and conflict
// failures are error-shaped, recorded rejections are success-shaped.
package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/app/metrics"
	"github.com/novabank/ledger_service/internal/app/services/authorize"
	"github.com/novabank/ledger_service/internal/app/services/ledger"
	"github.com/novabank/ledger_service/internal/app/services/registry"
	"github.com/novabank/ledger_service/internal/protocol"
	"github.com/novabank/ledger_service/pkg/logger"
)

// Dispatcher executes protocol requests against the core services.
type Dispatcher struct {
	registry *registry.Service
	engine   *authorize.Service
	ledger   *ledger.Service
	log      *logger.Logger
}

// New constructs a dispatcher.
func New(reg *registry.Service, engine *authorize.Service, led *ledger.Service, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("dispatch")
	}
	return &Dispatcher{registry: reg, engine: engine, ledger: led, log: log}
}

// Handle executes one request and always returns a well-formed response;
// malformed input is reported, never fatal.
func (d *Dispatcher) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	action, ok := protocol.ParseAction(req.Action)
	if !ok {
		metrics.RequestHandled(req.Action, protocol.StatusError)
		return protocol.Errorf("invalid action %q", req.Action)
	}

	var resp protocol.Response
	switch action {
	case protocol.ActionRegister:
		resp = d.register(ctx, req)
	case protocol.ActionLogin:
		resp = d.login(ctx, req)
	case protocol.ActionGetBalance:
		resp = d.getBalance(ctx, req)
	case protocol.ActionGetUsers:
		resp = d.getUsers(ctx)
	case protocol.ActionMakeTransaction:
		resp = d.makeTransaction(ctx, req)
	case protocol.ActionGetTransactions:
		resp = d.getTransactions(ctx)
	}

	metrics.RequestHandled(string(action), resp.Status)
	return resp
}

func (d *Dispatcher) register(ctx context.Context, req protocol.Request) protocol.Response {
	keyPEM, err := base64.StdEncoding.DecodeString(req.VerificationKey)
	if err != nil {
		return protocol.Errorf("verification_key is not valid base64")
	}
	if _, err := d.registry.Register(ctx, req.Name, keyPEM); err != nil {
		return errorResponse(err)
	}
	return protocol.OK("account registered")
}

func (d *Dispatcher) login(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := d.registry.Login(ctx, req.Name); err != nil {
		return errorResponse(err)
	}
	return protocol.OK("login confirmed")
}

func (d *Dispatcher) getBalance(ctx context.Context, req protocol.Request) protocol.Response {
	balance, err := d.ledger.Balance(ctx, req.Name)
	if err != nil {
		return errorResponse(err)
	}
	return protocol.Response{Status: protocol.StatusSuccess, Balance: balance.String()}
}

func (d *Dispatcher) getUsers(ctx context.Context) protocol.Response {
	names, err := d.registry.ListNames(ctx)
	if err != nil {
		return errorResponse(err)
	}
	if names == nil {
		names = []string{}
	}
	return protocol.Response{Status: protocol.StatusSuccess, Users: names}
}

func (d *Dispatcher) makeTransaction(ctx context.Context, req protocol.Request) protocol.Response {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return protocol.Errorf("amount %q is not a valid decimal", req.Amount)
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return protocol.Errorf("signature is not valid base64")
	}

	rec, err := d.engine.Authorize(ctx, authorize.Request{
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		Amount:    amount,
		IssuedAt:  req.IssuedAt,
		Signature: signature,
	})
	if err != nil {
		return errorResponse(err)
	}

	wire := protocol.NewTransactionRecord(rec)
	resp := protocol.Response{Status: protocol.StatusSuccess, Transaction: &wire}
	if rec.Accepted() {
		resp.Message = "transaction accepted"
	} else {
		resp.Message = fmt.Sprintf("transaction rejected: %s", rec.Reason)
	}
	return resp
}

func (d *Dispatcher) getTransactions(ctx context.Context) protocol.Response {
	history, err := d.ledger.History(ctx)
	if err != nil {
		return errorResponse(err)
	}
	records := make([]protocol.TransactionRecord, 0, len(history))
	for _, tx := range history {
		records = append(records, protocol.NewTransactionRecord(tx))
	}
	return protocol.Response{Status: protocol.StatusSuccess, Transactions: records}
}

// errorResponse maps a typed service error onto the wire. Everything that
// reaches here is a validation or conflict failure; none of them recorded a
// transaction. Unknown-account and duplicate-registration errors carry the
// account name from the store, so the message is passed through as is.
func errorResponse(err error) protocol.Response {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return protocol.Errorf("request aborted")
	}
	return protocol.Errorf("%v", err)
}
