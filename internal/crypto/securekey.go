// securekey.go: secret key containers, zeroization, and random material.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	goerrors "github.com/agilira/go-errors"
)

const (
	// KeySize is the required key size for AES-256 encryption in bytes.
	KeySize = 32

	// SaltSize is the salt length for password-based key derivation in bytes.
	SaltSize = 32
)

// SecureKey wraps exactly KeySize bytes of secret key material.
//
// The wrapped bytes are owned exclusively by the operation using them and
// must be released with Destroy, which overwrites the backing array with
// zeros. Callers are expected to pair construction with a deferred Destroy
// so the key is cleared on every exit path:
//
//	key, err := crypto.NewSecureKey(raw)
//	if err != nil {
//		return err
//	}
//	defer key.Destroy()
type SecureKey struct {
	key [KeySize]byte
}

// NewSecureKey copies raw into a new SecureKey. The caller keeps ownership
// of raw and remains responsible for zeroizing it if it is sensitive.
func NewSecureKey(raw []byte) (*SecureKey, error) {
	if len(raw) != KeySize {
		return nil, goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("key size must be %d bytes for AES-256, got %d", KeySize, len(raw)))
	}
	k := &SecureKey{}
	copy(k.key[:], raw)
	return k, nil
}

// Bytes exposes read-only access to the key material for the duration of
// the enclosing operation. The returned slice aliases the backing array;
// it must not be retained past Destroy.
func (k *SecureKey) Bytes() []byte {
	return k.key[:]
}

// Destroy overwrites the backing array with zeros. Safe to call more than
// once and on a nil receiver.
func (k *SecureKey) Destroy() {
	if k == nil {
		return
	}
	Zeroize(k.key[:])
}

// Zeroize securely wipes a byte slice in place. Use it on every transient
// buffer that held secret material, including decoded base64 keys that were
// never wrapped in a SecureKey.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey generates a cryptographically secure random key of KeySize bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeKeyGen, "failed to generate key")
	}
	return key, nil
}

// GenerateSalt generates a fresh random salt of SaltSize bytes. Salts are
// persisted in the container and are not secret.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeSaltGen, "failed to generate salt")
	}
	return salt, nil
}

// GenerateNonce generates a cryptographically secure random nonce of the
// given size. Nonces must never repeat under the same key, which is why
// they are regenerated per message and never derived from content.
func GenerateNonce(size int) ([]byte, error) {
	if size <= 0 {
		return nil, goerrors.New(ErrCodeNonceGen, "nonce size must be positive")
	}
	nonce := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeNonceGen, "failed to generate nonce")
	}
	return nonce, nil
}

// KeyToBase64 encodes a key as a standard base64 string. This is the
// interchange encoding used by the container header, the CLI flags, and
// the HTTP headers.
func KeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// KeyFromBase64 decodes a standard base64 string to a key.
func KeyFromBase64(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrCodeBase64Decode, "failed to decode base64 key")
	}
	return key, nil
}
