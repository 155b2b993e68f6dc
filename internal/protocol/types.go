// Package protocol defines the wire contract: one JSON request and one JSON
// response per call over a connection-oriented transport. The action set is
// closed; the dispatcher switches over Action exhaustively.
package protocol

import (
	"fmt"
	"time"

	"github.com/novabank/ledger_service/internal/app/domain/transaction"
)

// Action tags a request. Parse rejects anything outside the closed set, so
// adding an action is a compile-visible change here and in the dispatcher.
type Action string

const (
	ActionRegister        Action = "register"
	ActionLogin           Action = "login"
	ActionGetBalance      Action = "get_balance"
	ActionGetUsers        Action = "get_users"
	ActionMakeTransaction Action = "make_transaction"
	ActionGetTransactions Action = "get_transactions"
)

// ParseAction maps a wire tag to an Action.
func ParseAction(tag string) (Action, bool) {
	switch Action(tag) {
	case ActionRegister, ActionLogin, ActionGetBalance, ActionGetUsers,
		ActionMakeTransaction, ActionGetTransactions:
		return Action(tag), true
	}
	return "", false
}

// Request is the union of all request shapes; which fields matter depends on
// the action. Binary fields travel base64-encoded.
type Request struct {
	Action          string `json:"action"`
	Name            string `json:"name,omitempty"`
	VerificationKey string `json:"verification_key,omitempty"`
	Sender          string `json:"sender,omitempty"`
	Receiver        string `json:"receiver,omitempty"`
	Amount          string `json:"amount,omitempty"`
	IssuedAt        string `json:"issued_at,omitempty"`
	Signature       string `json:"signature,omitempty"`
}

// Response statuses. Authorization outcomes (a recorded rejection) are
// success-shaped; StatusError is reserved for validation and conflict
// failures that recorded nothing.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TransactionRecord is the wire view of a history entry.
type TransactionRecord struct {
	ID          string    `json:"id"`
	Sequence    uint64    `json:"sequence"`
	Sender      string    `json:"sender"`
	Receiver    string    `json:"receiver"`
	Amount      string    `json:"amount"`
	IssuedAt    string    `json:"issued_at"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewTransactionRecord converts a domain record to its wire view. The raw
// signature bytes stay server-side.
func NewTransactionRecord(tx transaction.Transaction) TransactionRecord {
	return TransactionRecord{
		ID:          tx.ID,
		Sequence:    tx.Sequence,
		Sender:      tx.Sender,
		Receiver:    tx.Receiver,
		Amount:      tx.Amount.String(),
		IssuedAt:    tx.IssuedAt,
		Status:      string(tx.Status),
		Reason:      tx.Reason,
		ProcessedAt: tx.ProcessedAt,
	}
}

// Response is the union of all response shapes.
type Response struct {
	Status       string              `json:"status"`
	Message      string              `json:"message,omitempty"`
	Balance      string              `json:"balance,omitempty"`
	Users        []string            `json:"users,omitempty"`
	Transaction  *TransactionRecord  `json:"transaction,omitempty"`
	Transactions []TransactionRecord `json:"transactions,omitempty"`
}

// OK returns a success response with a human-readable message.
func OK(message string) Response {
	return Response{Status: StatusSuccess, Message: message}
}

// Errorf returns an error response with a formatted message.
func Errorf(format string, args ...any) Response {
	return Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}
