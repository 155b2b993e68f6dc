package signing

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// The scheme is fixed: RSA with PSS padding (MGF1-SHA256), SHA-256 digest.
// Signing uses the maximum salt length; verification accepts any, so both
// directions interoperate with the reference clients.

var pssVerifyOpts = rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}

// Verifier checks signatures against one registered verification key.
type Verifier struct {
	key *rsa.PublicKey
}

// ParseVerificationKey parses a PEM-encoded PKIX public key into a Verifier.
// It rejects non-RSA keys; this is the only key validation the server does,
// and it happens once at registration time.
func ParseVerificationKey(pemBytes []byte) (*Verifier, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("verification key is not valid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("verification key is %T, want RSA", parsed)
	}
	return &Verifier{key: key}, nil
}

// Verify reports whether signature is a valid RSA-PSS signature over message.
// Malformed signature bytes simply do not verify; this never panics and
// never returns an error to the caller.
func (v *Verifier) Verify(message, signature []byte) bool {
	if v == nil || v.key == nil || len(signature) == 0 {
		return false
	}
	digest := sha256.Sum256(message)
	return rsa.VerifyPSS(v.key, crypto.SHA256, digest[:], signature, &pssVerifyOpts) == nil
}
