// Package encryption implements the local half of the envelope
// encryption scheme the reference system uses to hand a table to an
// untrusted compute collaborator: a random per-table data-encryption
// key (DEK) seals the table contents with an AEAD cipher, and the DEK
// itself is wrapped under a party's RSA public key (the PRPL equivalent
// of a cloud KMS asymmetric key) so only the intended collaborator can
// ever recover it. The actual cloud KMS plumbing (google.cloud.kms,
// GCP Confidential Space attestation) is out of scope here: see
// DESIGN.md.
package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

// DEKSize is the length in bytes of a data-encryption key, matching
// chacha20poly1305's key size.
const DEKSize = chacha20poly1305.KeySize

// GenerateDEK returns a fresh random data-encryption key.
func GenerateDEK() ([]byte, error) {
	dek := make([]byte, DEKSize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("encryption: generating DEK: %w", err)
	}
	return dek, nil
}

// serialisedTable is the JSON wire form of a table.Table used only as
// the plaintext payload before sealing; it is never exposed outside
// this package.
type serialisedTable struct {
	Order   []string         `json:"order"`
	Columns map[string][]any `json:"columns"`
	Rows    int              `json:"rows"`
}

// EncryptTable serialises t to JSON and seals it with dek under
// ChaCha20-Poly1305, returning the nonce-prefixed ciphertext.
func EncryptTable(t table.Table, dek []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(dek)
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}

	payload, err := marshalTable(t)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("encryption: generating nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, payload, nil), nil
}

// DecryptTable opens ciphertext produced by EncryptTable and
// reconstructs the table.
func DecryptTable(ciphertext []byte, dek []byte) (table.Table, error) {
	aead, err := chacha20poly1305.New(dek)
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext shorter than nonce", pprlerr.ErrLoadError)
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	payload, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed, wrong key or corrupted data: %v", pprlerr.ErrLoadError, err)
	}

	return unmarshalTable(payload)
}

func marshalTable(t table.Table) ([]byte, error) {
	s := serialisedTable{
		Order:   t.Columns(),
		Columns: make(map[string][]any, len(t.Columns())),
		Rows:    t.Len(),
	}
	for _, col := range s.Order {
		values, _ := t.Column(col)
		s.Columns[col] = values
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encryption: marshalling table: %w", err)
	}
	return payload, nil
}

func unmarshalTable(payload []byte) (table.Table, error) {
	var s serialisedTable
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("encryption: unmarshalling table: %w", err)
	}
	f := table.NewFrame(s.Rows)
	for _, col := range s.Order {
		if err := f.SetColumn(col, s.Columns[col]); err != nil {
			return nil, fmt.Errorf("encryption: rebuilding column %q: %w", col, err)
		}
	}
	return f, nil
}

// WrapKey encrypts a DEK under pub using RSA-OAEP with SHA-256,
// mirroring the asymmetric key-wrapping step the reference system
// performs against a KMS-held public key.
func WrapKey(dek []byte, pub *rsa.PublicKey) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, dek, nil)
	if err != nil {
		return nil, fmt.Errorf("encryption: wrapping key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey decrypts a DEK previously wrapped by WrapKey.
func UnwrapKey(wrapped []byte, priv *rsa.PrivateKey) ([]byte, error) {
	dek, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrapping key: %v", pprlerr.ErrLoadError, err)
	}
	return dek, nil
}
