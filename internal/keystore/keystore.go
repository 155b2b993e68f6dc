// Package keystore implements the client-side key custody: generation and
// PEM persistence of signing keys under a per-account directory. The server
// never touches this package; it only ever sees verification keys.
package keystore

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/novabank/ledger_service/internal/signing"
)

const (
	signingKeyFile      = "signing_key.pem"
	verificationKeyFile = "verification_key.pem"
)

// Keystore stores one key pair per account name under a base directory.
type Keystore struct {
	dir string
}

// New returns a keystore rooted at dir.
func New(dir string) *Keystore {
	return &Keystore{dir: dir}
}

// Exists reports whether a signing key is already stored for name.
func (k *Keystore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(k.dir, name, signingKeyFile))
	return err == nil
}

// Generate creates and persists a fresh key pair for name. Fails if one is
// already stored.
func (k *Keystore) Generate(name string) (*rsa.PrivateKey, error) {
	if k.Exists(name) {
		return nil, fmt.Errorf("key pair for %s already exists", name)
	}

	key, err := signing.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	accountDir := filepath.Join(k.dir, name)
	if err := os.MkdirAll(accountDir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}

	signingPEM, err := signing.MarshalSigningKey(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(accountDir, signingKeyFile), signingPEM, 0o600); err != nil {
		return nil, fmt.Errorf("write signing key: %w", err)
	}

	verificationPEM, err := signing.MarshalVerificationKey(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(accountDir, verificationKeyFile), verificationPEM, 0o644); err != nil {
		return nil, fmt.Errorf("write verification key: %w", err)
	}

	return key, nil
}

// Load reads the stored signing key for name.
func (k *Keystore) Load(name string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(filepath.Join(k.dir, name, signingKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	return signing.ParseSigningKey(pemBytes)
}

// LoadOrGenerate loads the key pair for name, generating one on first use.
// The second return reports whether a new pair was created.
func (k *Keystore) LoadOrGenerate(name string) (*rsa.PrivateKey, bool, error) {
	if k.Exists(name) {
		key, err := k.Load(name)
		return key, false, err
	}
	key, err := k.Generate(name)
	return key, true, err
}

// VerificationKeyPEM returns the stored PEM verification key for name.
func (k *Keystore) VerificationKeyPEM(name string) ([]byte, error) {
	pemBytes, err := os.ReadFile(filepath.Join(k.dir, name, verificationKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read verification key: %w", err)
	}
	return pemBytes, nil
}
