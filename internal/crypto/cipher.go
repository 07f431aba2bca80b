// cipher.go: AES-256-GCM authenticated encryption with per-message nonces.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

const (
	// NonceSize is the GCM nonce length in bytes. The nonce is stored in
	// the container between the header and the ciphertext.
	NonceSize = 12

	// TagSize is the GCM authentication tag length appended to the
	// ciphertext.
	TagSize = 16
)

// newGCM builds a fresh AES-256-GCM AEAD for the key. Keys are exclusively
// owned per call and destroyed at call end, so ciphers are never cached;
// a cache keyed on key material would retain it past SecureKey.Destroy.
func newGCM(key *SecureKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, goerrors.Wrap(err, ErrCodeCipherInit, "failed to create AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrCodeCipherInit, "failed to create GCM cipher")
	}
	return gcm, nil
}

// Seal encrypts plaintext under key with a fresh random nonce.
//
// The nonce is generated here on every call and is never accepted from the
// caller; that keeps nonce reuse bugs structurally impossible. Empty
// plaintext is supported and produces a ciphertext of just the tag.
func Seal(key *SecureKey, plaintext []byte) (nonce, ciphertext []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	nonce, err = GenerateNonce(gcm.NonceSize())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Open decrypts and verifies ciphertext under key and nonce.
//
// Verification is atomic: a wrong key, a flipped ciphertext or tag bit, and
// a modified nonce all produce the same ErrAuthentication, with no
// distinguishing detail in the message. That single signal is deliberate
// oracle resistance, not sloppiness.
func Open(key *SecureKey, nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	if len(nonce) != gcm.NonceSize() {
		richErr := goerrors.New(ErrCodeAuth, "authentication failed")
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, richErr)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		richErr := goerrors.New(ErrCodeAuth, "authentication failed")
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, richErr)
	}
	return plaintext, nil
}
