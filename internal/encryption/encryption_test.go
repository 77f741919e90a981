package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/pprl-toolkit/pprl-go/internal/table"
)

func sampleTable(t *testing.T) table.Table {
	t.Helper()
	f, err := table.NewFrameFromColumns(map[string][]any{
		"name": {"Dave Johnson", "Maria Lopez"},
	})
	if err != nil {
		t.Fatalf("NewFrameFromColumns: %v", err)
	}
	return f
}

func TestEncryptDecryptTableRoundTrip(t *testing.T) {
	tbl := sampleTable(t)
	dek, err := GenerateDEK()
	if err != nil {
		t.Fatalf("GenerateDEK: %v", err)
	}

	ciphertext, err := EncryptTable(tbl, dek)
	if err != nil {
		t.Fatalf("EncryptTable: %v", err)
	}

	decrypted, err := DecryptTable(ciphertext, dek)
	if err != nil {
		t.Fatalf("DecryptTable: %v", err)
	}

	names, ok := decrypted.Column("name")
	if !ok {
		t.Fatal("expected 'name' column after decryption")
	}
	if names[0] != "Dave Johnson" || names[1] != "Maria Lopez" {
		t.Fatalf("unexpected decrypted values: %v", names)
	}
}

func TestDecryptTableFailsWithWrongKey(t *testing.T) {
	tbl := sampleTable(t)
	dek, _ := GenerateDEK()
	wrongDEK, _ := GenerateDEK()

	ciphertext, err := EncryptTable(tbl, dek)
	if err != nil {
		t.Fatalf("EncryptTable: %v", err)
	}
	if _, err := DecryptTable(ciphertext, wrongDEK); err == nil {
		t.Fatal("expected decryption failure with wrong key")
	}
}

func TestWrapUnwrapKeyRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	dek, _ := GenerateDEK()

	wrapped, err := WrapKey(dek, &priv.PublicKey)
	if err != nil {
		t.Fatalf("WrapKey: %v", err)
	}
	unwrapped, err := UnwrapKey(wrapped, priv)
	if err != nil {
		t.Fatalf("UnwrapKey: %v", err)
	}
	if string(unwrapped) != string(dek) {
		t.Fatal("unwrapped key does not match original DEK")
	}
}
