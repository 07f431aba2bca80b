// kdf.go: Argon2id key derivation and the bounded derivation worker pool.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"context"
	"fmt"

	goerrors "github.com/agilira/go-errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Argon2id parameters pinned by the container format. 64 MB of memory keeps
// GPU brute force expensive; parallelism stays at 1 so one derivation never
// amplifies beyond a single worker's memory budget.
const (
	// Argon2Memory is the memory cost in KiB (64 MB).
	Argon2Memory uint32 = 65536

	// Argon2Time is the number of iterations.
	Argon2Time uint32 = 3

	// Argon2Parallelism is the number of lanes.
	Argon2Parallelism uint8 = 1

	// DefaultDeriveWorkers bounds concurrent derivations when the caller
	// does not configure the pool. Each in-flight derivation holds
	// Argon2Memory KiB of working memory.
	DefaultDeriveWorkers = 4
)

// KDFParams carries the Argon2id cost parameters recorded in a password-mode
// container. Decryption always derives with the recorded parameters rather
// than the process defaults, so old containers keep decrypting after the
// defaults change.
type KDFParams struct {
	// Memory is the memory cost in KiB.
	Memory uint32

	// Time is the iteration count.
	Time uint32

	// Parallelism is the lane count.
	Parallelism uint8
}

// DefaultKDFParams returns the parameters written into new containers.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      Argon2Memory,
		Time:        Argon2Time,
		Parallelism: Argon2Parallelism,
	}
}

// deriveKey runs Argon2id (version 0x13) synchronously and wraps the output
// in a SecureKey. The salt must be exactly SaltSize bytes.
func deriveKey(password string, salt []byte, params KDFParams) (*SecureKey, error) {
	if err := validateSalt(salt); err != nil {
		return nil, err
	}
	if password == "" {
		richErr := goerrors.New(ErrCodeKDFParams, "password cannot be empty")
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, richErr)
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		richErr := goerrors.New(ErrCodeKDFParams, fmt.Sprintf("invalid argon2 parameters: memory=%d time=%d parallelism=%d", params.Memory, params.Time, params.Parallelism))
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, richErr)
	}

	raw := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, KeySize)
	defer Zeroize(raw)

	if len(raw) < KeySize {
		richErr := goerrors.New(ErrCodeKDFOutput, "derived key shorter than required")
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, richErr)
	}

	key, err := NewSecureKey(raw[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	return key, nil
}

func validateSalt(salt []byte) error {
	if len(salt) != SaltSize {
		richErr := goerrors.New(ErrCodeKDFSalt, fmt.Sprintf("salt must be %d bytes, got %d", SaltSize, len(salt)))
		return fmt.Errorf("%w: %w", ErrKeyDerivation, richErr)
	}
	return nil
}

// Deriver dispatches Argon2id derivations to a bounded worker pool.
//
// A derivation costs hundreds of milliseconds of CPU plus Argon2Memory KiB
// of working memory, so it must not run on a goroutine that is also
// servicing concurrent requests. Derive admits the work through a weighted
// semaphore, runs it on its own goroutine, and suspends the caller on a
// result channel. Once admitted, a derivation always runs to completion;
// callers needing timeouts wrap the call site, not the worker.
type Deriver struct {
	sem *semaphore.Weighted
}

// NewDeriver creates a Deriver that admits at most workers concurrent
// derivations. Non-positive workers falls back to DefaultDeriveWorkers.
func NewDeriver(workers int) *Deriver {
	if workers <= 0 {
		workers = DefaultDeriveWorkers
	}
	return &Deriver{sem: semaphore.NewWeighted(int64(workers))}
}

type deriveResult struct {
	key *SecureKey
	err error
}

// Derive derives a 256-bit key from password and salt on a pool worker.
//
// The salt is validated before any work is dispatched. A failure to admit
// the work (context cancelled or expired while queued) is reported as
// ErrAsync, distinct from a derivation failure, which is ErrKeyDerivation.
func (d *Deriver) Derive(ctx context.Context, password string, salt []byte, params KDFParams) (*SecureKey, error) {
	if err := validateSalt(salt); err != nil {
		return nil, err
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		richErr := goerrors.Wrap(err, ErrCodeDispatch, "failed to dispatch derivation to worker pool")
		return nil, fmt.Errorf("%w: %w", ErrAsync, richErr)
	}

	ch := make(chan deriveResult, 1)
	go func() {
		defer d.sem.Release(1)
		key, err := deriveKey(password, salt, params)
		ch <- deriveResult{key: key, err: err}
	}()

	// The admitted derivation is never cancelled; the caller suspends here
	// until the worker completes.
	res := <-ch
	if res.err != nil {
		return nil, res.err
	}
	return res.key, nil
}
