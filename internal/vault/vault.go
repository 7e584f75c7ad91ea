package vault

import (
	"context"
	"errors"

	"contadoc-backend/internal/shared/crypto"
	"contadoc-backend/internal/shared/storage/blob"
)

const ivMetadataKey = "iv"

// ErrMissingIV indicates a stored object without the IV metadata entry,
// meaning it cannot be decrypted.
var ErrMissingIV = errors.New("stored object missing iv metadata")

// Vault is the encrypting blob adapter: payloads are AES-256-CBC encrypted
// before transport and decrypted after retrieval. The per-object IV rides in
// the object metadata. Integrity hashes are always computed over plaintext by
// the callers, so a successful decrypt-and-hash-match proves end-to-end
// integrity regardless of the backend.
type Vault struct {
	Blob   blob.Store
	Cipher *crypto.Cipher
}

// New constructs a Vault over the given backend and cipher.
func New(store blob.Store, cipher *crypto.Cipher) *Vault {
	return &Vault{Blob: store, Cipher: cipher}
}

// Store encrypts plain and uploads the ciphertext with the IV merged into
// metadata. Failures are not retried here; retry policy belongs to the
// ingestion worker.
func (v *Vault) Store(ctx context.Context, plain []byte, name string, metadata map[string]string) (string, error) {
	cipherText, ivHex, err := v.Cipher.Encrypt(plain)
	if err != nil {
		return "", err
	}

	merged := make(map[string]string, len(metadata)+1)
	for k, val := range metadata {
		merged[k] = val
	}
	merged[ivMetadataKey] = ivHex

	return v.Blob.Put(ctx, name, cipherText, merged)
}

// Retrieve downloads the ciphertext and decrypts it using the stored IV.
func (v *Vault) Retrieve(ctx context.Context, handle string) ([]byte, error) {
	cipherText, metadata, err := v.Blob.Get(ctx, handle)
	if err != nil {
		return nil, err
	}

	ivHex, ok := metadata[ivMetadataKey]
	if !ok || ivHex == "" {
		return nil, ErrMissingIV
	}
	return v.Cipher.Decrypt(cipherText, ivHex)
}

// Remove deletes the stored object.
func (v *Vault) Remove(ctx context.Context, handle string) error {
	return v.Blob.Delete(ctx, handle)
}
