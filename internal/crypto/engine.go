// engine.go: the encryption engine orchestrating KDF, cipher, codec, and
// compression.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"context"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Credential selects how a container is encrypted or decrypted. At most one
// of Password and Key may be set; both set is a caller error the engine
// rejects rather than resolving silently.
//
// On encrypt, an empty Credential means "generate a random key for me"; the
// generated key is surfaced through EncryptResult.GeneratedKey.
//
// On decrypt of a key-mode container, an empty Credential is only honored
// when AllowEmbeddedKey is set: the engine then falls back to the key
// embedded in the container header. Self-decrypting containers are a
// deliberate convenience trade-off of the format, and the explicit flag
// keeps that downgrade visible at the call site instead of being an
// implicit fallback.
type Credential struct {
	// Password selects password-based (Argon2id) mode.
	Password string

	// Key is a raw 32-byte key selecting key-based mode.
	Key []byte

	// AllowEmbeddedKey permits decrypting a key-mode container with the
	// key stored in its own header when Key is empty.
	AllowEmbeddedKey bool
}

// EncryptResult is the outcome of a successful encryption.
type EncryptResult struct {
	// Container is the serialized .xd container.
	Container []byte

	// GeneratedKey is the base64 encoding of the random key the engine
	// generated, set only when the Credential supplied neither a password
	// nor a key. Callers must surface it; it is recoverable afterwards
	// only through the embedded-key header field.
	GeneratedKey string
}

// Engine is the single entry point used by the CLI and HTTP adapters.
// Engines are stateless per call and safe for concurrent use; the only
// shared component is the bounded derivation pool.
type Engine struct {
	deriver *Deriver
}

// Option configures an Engine.
type Option func(*Engine)

// WithKDFWorkers bounds the number of concurrent Argon2id derivations.
func WithKDFWorkers(n int) Option {
	return func(e *Engine) {
		e.deriver = NewDeriver(n)
	}
}

// NewEngine creates an Engine with a default-sized derivation pool.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{deriver: NewDeriver(0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encrypt compresses and encrypts plaintext into a container that records
// filename as the original name.
//
// Credential selects the mode: password, explicit 32-byte key, or neither
// (a random key is generated and returned in the result). The plaintext is
// zstd-compressed and flagged before sealing, so decryption is
// byte-transparent regardless of whether compression helped.
func (e *Engine) Encrypt(ctx context.Context, plaintext []byte, filename string, cred Credential) (*EncryptResult, error) {
	if cred.Password != "" && len(cred.Key) > 0 {
		return nil, credentialConflict(ErrEncryption)
	}

	payload := compressPayload(plaintext)
	defer putPayloadBuffer(payload)

	if cred.Password != "" {
		return e.encryptWithPassword(ctx, payload, filename, cred.Password)
	}
	return e.encryptWithKey(payload, filename, cred.Key)
}

func (e *Engine) encryptWithPassword(ctx context.Context, payload []byte, filename, password string) (*EncryptResult, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	params := DefaultKDFParams()
	key, err := e.deriver.Derive(ctx, password, salt, params)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	nonce, ciphertext, err := Seal(key, payload)
	if err != nil {
		return nil, err
	}

	container, err := EncodePasswordContainer(NewPasswordHeader(filename, salt, params), nonce, ciphertext)
	if err != nil {
		return nil, err
	}
	return &EncryptResult{Container: container}, nil
}

func (e *Engine) encryptWithKey(payload []byte, filename string, rawKey []byte) (*EncryptResult, error) {
	generated := false
	if len(rawKey) == 0 {
		var err error
		rawKey, err = GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
		}
		generated = true
	}

	key, err := NewSecureKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}
	defer key.Destroy()

	keyB64 := KeyToBase64(rawKey)
	if generated {
		// The caller never saw this buffer; clear it now that the
		// SecureKey holds the only working copy.
		Zeroize(rawKey)
	}

	nonce, ciphertext, err := Seal(key, payload)
	if err != nil {
		return nil, err
	}

	container, err := EncodeKeyContainer(NewKeyHeader(filename, keyB64), nonce, ciphertext)
	if err != nil {
		return nil, err
	}

	res := &EncryptResult{Container: container}
	if generated {
		res.GeneratedKey = keyB64
	}
	return res, nil
}

// Decrypt parses a container, decrypts it with the supplied credential, and
// returns the plaintext together with the original filename recorded at
// encryption time.
//
// The container variant is detected from the marker byte; a credential that
// does not match the variant fails fast with ErrWrongMethod before any
// cryptographic work runs.
func (e *Engine) Decrypt(ctx context.Context, container []byte, cred Credential) ([]byte, string, error) {
	if cred.Password != "" && len(cred.Key) > 0 {
		return nil, "", credentialConflict(ErrDecryption)
	}

	mode, err := DetectMode(container)
	if err != nil {
		return nil, "", err
	}

	switch mode {
	case ModePassword:
		if len(cred.Key) > 0 || cred.Password == "" {
			return nil, "", wrongMethodError("this is a password-encrypted file; a password is required for decryption")
		}
		return e.decryptWithPassword(ctx, container, cred.Password)
	default:
		if cred.Password != "" {
			return nil, "", wrongMethodError("this file was not encrypted with a password; decrypt without providing one")
		}
		return e.decryptWithKey(container, cred)
	}
}

func (e *Engine) decryptWithPassword(ctx context.Context, container []byte, password string) ([]byte, string, error) {
	header, nonce, ciphertext, err := DecodePasswordContainer(container)
	if err != nil {
		return nil, "", err
	}

	params, err := headerKDFParams(header)
	if err != nil {
		return nil, "", err
	}

	salt, err := KeyFromBase64(header.Salt)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	key, err := e.deriver.Derive(ctx, password, salt, params)
	if err != nil {
		return nil, "", err
	}
	defer key.Destroy()

	return openAndDecompress(key, nonce, ciphertext, header.Filename)
}

func (e *Engine) decryptWithKey(container []byte, cred Credential) ([]byte, string, error) {
	header, nonce, ciphertext, err := DecodeKeyContainer(container)
	if err != nil {
		return nil, "", err
	}

	rawKey := cred.Key
	embedded := false
	if len(rawKey) == 0 {
		if !cred.AllowEmbeddedKey || header.Key == "" {
			richErr := goerrors.New(ErrCodeNoKey, "no decryption key available")
			return nil, "", fmt.Errorf("%w: %w", ErrDecryption, richErr)
		}
		rawKey, err = KeyFromBase64(header.Key)
		if err != nil {
			richErr := goerrors.Wrap(err, ErrCodeBase64Decode, "invalid embedded key encoding")
			return nil, "", fmt.Errorf("%w: %w", ErrDecryption, richErr)
		}
		embedded = true
	}

	key, err := NewSecureKey(rawKey)
	if embedded {
		// Transient decoded buffer; the SecureKey owns the copy now.
		Zeroize(rawKey)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	defer key.Destroy()

	return openAndDecompress(key, nonce, ciphertext, header.Filename)
}

func openAndDecompress(key *SecureKey, nonce, ciphertext []byte, filename string) ([]byte, string, error) {
	payload, err := Open(key, nonce, ciphertext)
	if err != nil {
		return nil, "", err
	}

	plaintext, wasCompressed, err := decompressPayload(payload)
	if wasCompressed || err != nil {
		// The intermediate payload duplicates plaintext-derived bytes.
		putPayloadBuffer(payload)
	}
	if err != nil {
		return nil, "", err
	}
	return plaintext, filename, nil
}

// headerKDFParams reconstructs the derivation parameters a password-mode
// container was written with. Decryption always uses the recorded
// parameters, never the process defaults, so parameter changes do not break
// old containers. Fields the header omits fall back to the current
// defaults.
func headerKDFParams(header *PasswordHeader) (KDFParams, error) {
	if header.KDF != KDFArgon2id {
		richErr := goerrors.New(ErrCodeKDFUnsupported, fmt.Sprintf("unsupported key derivation %q: legacy PBKDF2 containers cannot be decrypted", header.KDF))
		return KDFParams{}, fmt.Errorf("%w: %w", ErrDecryption, richErr)
	}

	params := DefaultKDFParams()
	if header.MemoryCost != nil {
		params.Memory = *header.MemoryCost
	}
	if header.TimeCost != nil {
		params.Time = *header.TimeCost
	}
	if header.Parallelism != nil {
		if *header.Parallelism == 0 || *header.Parallelism > 255 {
			richErr := goerrors.New(ErrCodeKDFParams, fmt.Sprintf("invalid recorded parallelism %d", *header.Parallelism))
			return KDFParams{}, fmt.Errorf("%w: %w", ErrKeyDerivation, richErr)
		}
		params.Parallelism = uint8(*header.Parallelism)
	}
	return params, nil
}

func credentialConflict(sentinel error) error {
	richErr := goerrors.New(ErrCodeCredentialConflict, "cannot supply both a password and a key; choose one")
	return fmt.Errorf("%w: %w", sentinel, richErr)
}
