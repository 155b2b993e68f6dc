// Package testutil provides shared test fixtures. RSA generation is slow, so
// tests share lazily created keys instead of minting one per case.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/novabank/ledger_service/internal/signing"
)

const testKeyBits = 2048 // smaller than production keys, same scheme

var (
	once   sync.Once
	keys   [2]*rsa.PrivateKey
	genErr error
)

func generate() {
	for i := range keys {
		keys[i], genErr = rsa.GenerateKey(rand.Reader, testKeyBits)
		if genErr != nil {
			return
		}
	}
}

// SigningKey returns the shared test signing key.
func SigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	once.Do(generate)
	if genErr != nil {
		t.Fatalf("generate test key: %v", genErr)
	}
	return keys[0]
}

// OtherSigningKey returns a second, distinct test key for wrong-signer cases.
func OtherSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	once.Do(generate)
	if genErr != nil {
		t.Fatalf("generate test key: %v", genErr)
	}
	return keys[1]
}

// VerificationKeyPEM returns the PEM verification key for a signing key.
func VerificationKeyPEM(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	pem, err := signing.MarshalVerificationKey(key)
	if err != nil {
		t.Fatalf("marshal verification key: %v", err)
	}
	return pem
}
