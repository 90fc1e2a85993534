// Package crypto encrypts values that must never sit in the database in
// plaintext, today the OAuth client secrets of per-organization single
// sign-on integrations. AES-256-GCM provides both confidentiality and
// integrity, so a stored secret cannot be read or silently tampered with by
// anyone holding only the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrKeyLengthInvalid is returned when a master key is not exactly 32 bytes (required for AES-256).
	ErrKeyLengthInvalid = errors.New("crypto: key must be exactly 32 bytes for AES-256")
	// ErrCiphertextCorrupted is returned when the ciphertext fails base64 decoding or is too short to contain a valid nonce.
	ErrCiphertextCorrupted = errors.New("crypto: ciphertext is corrupted or tampered")
	// ErrDecryptionFailed is returned when AES-GCM authentication or decryption fails, indicating tampering or a wrong key.
	ErrDecryptionFailed = errors.New("crypto: decryption operation failed")
	// ErrSaltTooShort is returned when the provided salt is fewer than 16 bytes, which would weaken PBKDF2 key derivation.
	ErrSaltTooShort = errors.New("crypto: salt must be at least 16 bytes")
)

// SecretCipher seals and opens secret values with a fixed key. The AEAD is
// built once at construction; the key itself is not retained.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a cipher from a 32-byte master key.
func NewSecretCipher(masterKey []byte) (*SecretCipher, error) {
	if len(masterKey) != 32 {
		return nil, ErrKeyLengthInvalid
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &SecretCipher{aead: aead}, nil
}

// DeriveSecretCipher creates a cipher from a passphrase using PBKDF2-SHA256.
// Iteration counts below 10000 are bumped to a secure default.
func DeriveSecretCipher(passphrase string, salt []byte, iterations int) (*SecretCipher, error) {
	if len(salt) < 16 {
		return nil, ErrSaltTooShort
	}
	if iterations < 10000 {
		iterations = 100000
	}
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, 32, sha256.New)
	return NewSecretCipher(key)
}

// Seal encrypts plaintext under a fresh random nonce and returns the
// nonce-prefixed ciphertext base64-encoded. Empty input stays empty so
// optional secrets round-trip through the database unchanged.
func (sc *SecretCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, sc.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := sc.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (sc *SecretCipher) Open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertextCorrupted
	}

	nonceLen := sc.aead.NonceSize()
	if len(sealed) < nonceLen {
		return "", ErrCiphertextCorrupted
	}

	plaintext, err := sc.aead.Open(nil, sealed[:nonceLen], sealed[nonceLen:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
