package vault

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"contadoc-backend/internal/shared/crypto"
	blobstore "contadoc-backend/internal/shared/storage/blob"
	locl "contadoc-backend/internal/shared/storage/blob/local"
)

func newTestVault(t *testing.T) (*Vault, blobstore.Store) {
	t.Helper()
	key, err := crypto.ParseKey(strings.Repeat("0f", 32))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	store := locl.New(t.TempDir())
	return New(store, cipher), store
}

func TestVaultRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	plain := []byte("%PDF-1.7 conteudo do documento")
	handle, err := v.Store(ctx, plain, "darf.pdf", map[string]string{
		"companyId": "c-1",
		"category":  "FISCAL",
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if handle == "" {
		t.Fatalf("expected non-empty handle")
	}

	got, err := v.Retrieve(ctx, handle)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch")
	}
}

func TestVaultCiphertextAtRest(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	plain := []byte("texto sensivel que nao pode ficar em claro")
	handle, err := v.Store(ctx, plain, "doc.pdf", nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	raw, metadata, err := store.Get(ctx, handle)
	if err != nil {
		t.Fatalf("backend Get: %v", err)
	}
	if bytes.Contains(raw, plain) {
		t.Fatalf("plaintext found in stored object")
	}
	if metadata["iv"] == "" {
		t.Fatalf("expected iv in object metadata, got %v", metadata)
	}
}

func TestVaultRetrieveWithoutIV(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	handle, err := store.Put(ctx, "raw.bin", []byte("not encrypted"), nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := v.Retrieve(ctx, handle); err == nil {
		t.Fatalf("expected error retrieving object without iv metadata")
	}
}

func TestVaultRemove(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	handle, err := v.Store(ctx, []byte("payload"), "doc.pdf", nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := v.Remove(ctx, handle); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, _, err := store.Get(ctx, handle); err == nil {
		t.Fatalf("expected Get to fail after Remove")
	}
}
