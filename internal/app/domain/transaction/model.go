package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the terminal outcome of a processed transaction. It is set
// exactly once and never changes afterwards.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Reject reasons recorded alongside a rejected transaction.
const (
	ReasonBadSignature      = "signature invalid"
	ReasonInsufficientFunds = "insufficient funds"
)

// Transaction is one entry in the append-only history. Sender, receiver,
// amount and issued-at are the client-signed fields; sequence, status,
// reason and processed-at are assigned by the server when the record is
// finalized.
type Transaction struct {
	ID        string          `json:"id"`
	Sequence  uint64          `json:"sequence"`
	Sender    string          `json:"sender"`
	Receiver  string          `json:"receiver"`
	Amount    decimal.Decimal `json:"amount"`
	IssuedAt  string          `json:"issued_at"`
	Signature []byte          `json:"signature"`
	Status    Status          `json:"status"`
	Reason    string          `json:"reason,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Accepted reports whether the record finalized as accepted.
func (t Transaction) Accepted() bool {
	return t.Status == StatusAccepted
}
