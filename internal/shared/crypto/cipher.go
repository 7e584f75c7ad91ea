package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const keySize = 32

var (
	ErrBadKey        = errors.New("encryption key must be 32 bytes")
	ErrBadCiphertext = errors.New("ciphertext malformed")
)

// SHA256Hex returns the hex-encoded SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Cipher encrypts and decrypts payloads with AES-256-CBC. The key is fixed
// for the lifetime of the process; a fresh IV is drawn per Encrypt call.
type Cipher struct {
	key []byte
}

// NewCipher constructs a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, ErrBadKey
	}
	k := make([]byte, keySize)
	copy(k, key)
	return &Cipher{key: k}, nil
}

// ParseKey decodes a 64-character hex string into a 32-byte key.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != keySize {
		return nil, ErrBadKey
	}
	return key, nil
}

// GenerateKey returns a random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate encryption key: %w", err)
	}
	return key, nil
}

// Encrypt returns the CBC ciphertext of plain along with the hex-encoded IV
// used. PKCS#7 padding is applied, so empty input is valid.
func (c *Cipher) Encrypt(plain []byte) ([]byte, string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return out, hex.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt given the ciphertext and the hex-encoded IV.
func (c *Cipher) Decrypt(cipherText []byte, ivHex string) ([]byte, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, ErrBadCiphertext
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, ErrBadCiphertext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, cipherText)

	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	pad := blockSize - len(b)%blockSize
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, ErrBadCiphertext
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > blockSize {
		return nil, ErrBadCiphertext
	}
	for _, p := range b[len(b)-pad:] {
		if int(p) != pad {
			return nil, ErrBadCiphertext
		}
	}
	return b[:len(b)-pad], nil
}
