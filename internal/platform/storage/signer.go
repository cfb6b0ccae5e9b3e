package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Signer produces the GoogleAccessID and payload signatures that Cloud
// Storage signed URLs are built from.
type Signer interface {
	Email() string
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

// ServiceAccountSigner signs payloads with the RSA key embedded in a
// service-account JSON credentials file.
type ServiceAccountSigner struct {
	email string
	key   *rsa.PrivateKey
}

// NewServiceAccountSignerFromFile reads a service-account credentials file
// from disk and builds a signer from it.
func NewServiceAccountSignerFromFile(path string) (*ServiceAccountSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read credentials file: %w", err)
	}
	return NewServiceAccountSignerFromJSON(raw)
}

// NewServiceAccountSignerFromJSON builds a signer from raw credentials JSON.
func NewServiceAccountSignerFromJSON(raw []byte) (*ServiceAccountSigner, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("storage: decode credentials: %w", err)
	}

	email := strings.TrimSpace(creds.ClientEmail)
	if email == "" {
		return nil, errors.New("storage: credentials missing client_email")
	}
	key, err := decodePrivateKey(strings.TrimSpace(creds.PrivateKey))
	if err != nil {
		return nil, err
	}

	return &ServiceAccountSigner{email: email, key: key}, nil
}

// Email reports the service-account email used as the GoogleAccessID.
func (s *ServiceAccountSigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// SignBytes signs the payload with RSA PKCS#1 v1.5 over a SHA-256 digest,
// the scheme Cloud Storage expects for signed URLs.
func (s *ServiceAccountSigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("storage: signer has no private key")
	}
	if len(payload) == 0 {
		return nil, errors.New("storage: nothing to sign")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	digest := sha256.Sum256(payload)
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign payload: %w", err)
	}
	return signature, nil
}

func decodePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	if pemText == "" {
		return nil, errors.New("storage: credentials missing private_key")
	}
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, errors.New("storage: private_key is not valid PEM")
	}

	// Service accounts issue PKCS#8 keys; accept PKCS#1 for older files.
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("storage: private_key is not an RSA key")
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("storage: parse private_key: %w", err)
	}
	return key, nil
}
