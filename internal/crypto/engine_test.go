// engine_test.go: end-to-end tests for the encryption engine.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	crypto "github.com/Amitminer/EncryptX/internal/crypto"
)

func testEngine() *crypto.Engine {
	return crypto.NewEngine(crypto.WithKDFWorkers(2))
}

func fixedKey() []byte {
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecrypt_KeyRoundTrip(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	key := fixedKey()

	plaintexts := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("hello world"),
		bytes.Repeat([]byte("compressible "), 1000),
	}

	for _, plaintext := range plaintexts {
		res, err := engine.Encrypt(ctx, plaintext, "notes.txt", crypto.Credential{Key: key})
		if err != nil {
			t.Fatalf("Encrypt failed for %d bytes: %v", len(plaintext), err)
		}
		if res.GeneratedKey != "" {
			t.Error("Expected no generated key when a key was supplied")
		}

		decrypted, filename, err := engine.Decrypt(ctx, res.Container, crypto.Credential{Key: key})
		if err != nil {
			t.Fatalf("Decrypt failed for %d bytes: %v", len(plaintext), err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Errorf("Round trip mismatch for %d bytes", len(plaintext))
		}
		if filename != "notes.txt" {
			t.Errorf("Expected filename notes.txt, got %q", filename)
		}
	}
}

func TestEncryptDecrypt_PasswordRoundTrip(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	plaintext := []byte("password protected payload")

	res, err := engine.Encrypt(ctx, plaintext, "secrets.db", crypto.Credential{Password: "correct horse battery staple"})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if res.Container[0] != crypto.PasswordMarker {
		t.Fatalf("Expected password marker 0xFF, got 0x%02X", res.Container[0])
	}

	decrypted, filename, err := engine.Decrypt(ctx, res.Container, crypto.Credential{Password: "correct horse battery staple"})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("Round trip mismatch")
	}
	if filename != "secrets.db" {
		t.Errorf("Expected filename secrets.db, got %q", filename)
	}

	// Wrong password must fail with the unified authentication error.
	_, _, err = engine.Decrypt(ctx, res.Container, crypto.Credential{Password: "wrong password"})
	if !errors.Is(err, crypto.ErrAuthentication) {
		t.Errorf("Expected ErrAuthentication for wrong password, got %v", err)
	}
}

func TestEncrypt_GeneratedKey(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	plaintext := []byte("no credential supplied")

	res, err := engine.Encrypt(ctx, plaintext, "gen.bin", crypto.Credential{})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if res.GeneratedKey == "" {
		t.Fatal("Expected a generated key to be surfaced")
	}

	key, err := crypto.KeyFromBase64(res.GeneratedKey)
	if err != nil {
		t.Fatalf("Generated key is not valid base64: %v", err)
	}
	if len(key) != crypto.KeySize {
		t.Fatalf("Generated key is %d bytes, want %d", len(key), crypto.KeySize)
	}

	decrypted, _, err := engine.Decrypt(ctx, res.Container, crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Decrypt with generated key failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("Round trip mismatch with generated key")
	}
}

func TestDecrypt_EmbeddedKeyOptIn(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	plaintext := []byte("self decrypting container")

	res, err := engine.Encrypt(ctx, plaintext, "conv.bin", crypto.Credential{Key: fixedKey()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Without the opt-in flag the engine refuses the embedded key.
	_, _, err = engine.Decrypt(ctx, res.Container, crypto.Credential{})
	if !errors.Is(err, crypto.ErrDecryption) {
		t.Errorf("Expected ErrDecryption without opt-in, got %v", err)
	}

	decrypted, _, err := engine.Decrypt(ctx, res.Container, crypto.Credential{AllowEmbeddedKey: true})
	if err != nil {
		t.Fatalf("Decrypt with embedded key failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("Round trip mismatch with embedded key")
	}
}

func TestCredentialConflict(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	_, err := engine.Encrypt(ctx, []byte("x"), "x", crypto.Credential{Password: "p", Key: fixedKey()})
	if !errors.Is(err, crypto.ErrEncryption) {
		t.Errorf("Expected ErrEncryption for conflicting encrypt credential, got %v", err)
	}

	res, err := engine.Encrypt(ctx, []byte("x"), "x", crypto.Credential{Key: fixedKey()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	_, _, err = engine.Decrypt(ctx, res.Container, crypto.Credential{Password: "p", Key: fixedKey()})
	if !errors.Is(err, crypto.ErrDecryption) {
		t.Errorf("Expected ErrDecryption for conflicting decrypt credential, got %v", err)
	}
}

func TestDecrypt_ModeMismatch(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	key := fixedKey()

	keyContainer, err := engine.Encrypt(ctx, []byte("key mode"), "k.bin", crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Key-mode container presented to the password path.
	_, _, err = engine.Decrypt(ctx, keyContainer.Container, crypto.Credential{Password: "nope"})
	if !errors.Is(err, crypto.ErrWrongMethod) {
		t.Errorf("Expected ErrWrongMethod for password on key-mode, got %v", err)
	}

	// Password-mode container presented to the key path. Built by hand so
	// the test does not pay for a real derivation.
	header := crypto.NewPasswordHeader("p.bin", make([]byte, crypto.SaltSize), crypto.DefaultKDFParams())
	pwContainer, err := crypto.EncodePasswordContainer(header, make([]byte, crypto.NonceSize), []byte("ciphertext"))
	if err != nil {
		t.Fatalf("EncodePasswordContainer failed: %v", err)
	}
	_, _, err = engine.Decrypt(ctx, pwContainer, crypto.Credential{Key: key})
	if !errors.Is(err, crypto.ErrWrongMethod) {
		t.Errorf("Expected ErrWrongMethod for key on password-mode, got %v", err)
	}
	_, _, err = engine.Decrypt(ctx, pwContainer, crypto.Credential{})
	if !errors.Is(err, crypto.ErrWrongMethod) {
		t.Errorf("Expected ErrWrongMethod for missing password, got %v", err)
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	key := fixedKey()

	res, err := engine.Encrypt(ctx, []byte("tamper target"), "t.bin", crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	container := res.Container

	headerLen := binary.BigEndian.Uint32(container[:4])
	nonceStart := 4 + int(headerLen)

	// Flipping any single bit in the nonce, ciphertext, or tag region must
	// fail with the authentication error, never succeed with wrong output.
	for i := nonceStart; i < len(container); i++ {
		tampered := make([]byte, len(container))
		copy(tampered, container)
		tampered[i] ^= 0x01

		_, _, err := engine.Decrypt(ctx, tampered, crypto.Credential{Key: key})
		if !errors.Is(err, crypto.ErrAuthentication) {
			t.Fatalf("Offset %d: expected ErrAuthentication, got %v", i, err)
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	res, err := engine.Encrypt(ctx, []byte("secret"), "s.bin", crypto.Credential{Key: fixedKey()})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	wrongKey := make([]byte, crypto.KeySize)
	for i := range wrongKey {
		wrongKey[i] = byte(255 - i)
	}
	_, _, err = engine.Decrypt(ctx, res.Container, crypto.Credential{Key: wrongKey})
	if !errors.Is(err, crypto.ErrAuthentication) {
		t.Errorf("Expected ErrAuthentication for wrong key, got %v", err)
	}
}

func TestDecrypt_TruncatedContainers(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	key := fixedKey()

	res, err := engine.Encrypt(ctx, []byte("truncate me"), "tr.bin", crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	headerLen := binary.BigEndian.Uint32(res.Container[:4])
	minLen := 4 + int(headerLen) + crypto.NonceSize

	for cut := 0; cut < len(res.Container); cut++ {
		_, _, err := engine.Decrypt(ctx, res.Container[:cut], crypto.Credential{Key: key})
		if err == nil {
			t.Fatalf("Expected error for container truncated to %d bytes", cut)
		}
		if cut < minLen && !errors.Is(err, crypto.ErrFormat) {
			t.Fatalf("Truncation to %d bytes: expected ErrFormat, got %v", cut, err)
		}
	}
}

func TestEncrypt_CompressionTransparency(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	key := fixedKey()

	// Random data does not compress; the round trip must still be
	// byte-identical.
	incompressible := make([]byte, 4096)
	if _, err := rand.Read(incompressible); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	res, err := engine.Encrypt(ctx, incompressible, "rand.bin", crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	decrypted, _, err := engine.Decrypt(ctx, res.Container, crypto.Credential{Key: key})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, incompressible) {
		t.Error("Incompressible payload did not round trip byte-identically")
	}
}

func TestEncrypt_ContainerLayout(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()
	zeroKey := make([]byte, crypto.KeySize)

	res, err := engine.Encrypt(ctx, []byte("hello test"), "hello.txt", crypto.Credential{Key: zeroKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	container := res.Container

	headerLen := binary.BigEndian.Uint32(container[:4])
	if int(4+headerLen) > len(container) {
		t.Fatalf("Header length prefix %d exceeds container size %d", headerLen, len(container))
	}

	var header crypto.KeyHeader
	if err := json.Unmarshal(container[4:4+headerLen], &header); err != nil {
		t.Fatalf("Length prefix does not delimit valid header JSON: %v", err)
	}
	if header.Filename != "hello.txt" {
		t.Errorf("Expected filename hello.txt in header, got %q", header.Filename)
	}
	if header.Version != crypto.KeyFormatVersion {
		t.Errorf("Expected version %d, got %d", crypto.KeyFormatVersion, header.Version)
	}

	decrypted, filename, err := engine.Decrypt(ctx, container, crypto.Credential{Key: zeroKey})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(decrypted) != "hello test" {
		t.Errorf("Expected plaintext %q, got %q", "hello test", decrypted)
	}
	if filename != "hello.txt" {
		t.Errorf("Expected filename hello.txt, got %q", filename)
	}
}

func TestDecrypt_LegacyPBKDF2Rejected(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	iterations := uint32(100000)
	header := crypto.PasswordHeader{
		Filename:   "legacy.bin",
		Salt:       crypto.KeyToBase64(make([]byte, crypto.SaltSize)),
		KDF:        "pbkdf2",
		Iterations: &iterations,
		Version:    crypto.PasswordFormatVersion,
	}
	container, err := crypto.EncodePasswordContainer(header, make([]byte, crypto.NonceSize), []byte("ct"))
	if err != nil {
		t.Fatalf("EncodePasswordContainer failed: %v", err)
	}

	_, _, err = engine.Decrypt(ctx, container, crypto.Credential{Password: "pw"})
	if !errors.Is(err, crypto.ErrDecryption) {
		t.Errorf("Expected ErrDecryption for legacy pbkdf2 container, got %v", err)
	}
}
