// Package signing holds the canonical transaction encoding and the RSA-PSS
// signature scheme shared by the client (signing) and the server
// (verification). Both sides must produce byte-identical messages for the
// same logical fields, so the encoding lives here and nowhere else.
package signing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// signedFields fixes the field order and naming of the signable message.
// Changing anything here invalidates every existing signature.
type signedFields struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
	IssuedAt string `json:"issued_at"`
}

// EncodeTransaction returns the canonical byte encoding of a transaction's
// signable fields. It is a pure function of the four inputs: compact JSON,
// fixed field order, amount in normalized decimal form. The issued-at string
// is carried verbatim; the engine never interprets it.
func EncodeTransaction(sender, receiver string, amount decimal.Decimal, issuedAt string) []byte {
	msg, err := json.Marshal(signedFields{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount.String(),
		IssuedAt: issuedAt,
	})
	if err != nil {
		// Marshal of a flat string struct cannot fail.
		panic(err)
	}
	return msg
}
