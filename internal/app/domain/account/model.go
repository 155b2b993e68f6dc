package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered participant: a unique name, the verification key
// presented at registration, and the current balance. Name and key are
// immutable after creation; the balance is mutated only by the ledger's
// atomic transfer.
type Account struct {
	Name            string          `json:"name"`
	VerificationKey []byte          `json:"-"`
	Balance         decimal.Decimal `json:"balance"`
	CreatedAt       time.Time       `json:"created_at"`
}
