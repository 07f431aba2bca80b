// Package crypto implements the EncryptX encryption engine: the versioned
// .xd container format, dual-mode (key vs. password) encryption and
// decryption, Argon2id password-based key derivation, and the
// authenticated-encryption/compression composition.
//
// The package exposes a single orchestration type, Engine, which the CLI
// and HTTP adapters call with complete in-memory byte buffers:
//
//	engine := crypto.NewEngine()
//	res, err := engine.Encrypt(ctx, data, "report.pdf", crypto.Credential{Password: "hunter2"})
//	if err != nil {
//		return err
//	}
//	plaintext, name, err := engine.Decrypt(ctx, res.Container, crypto.Credential{Password: "hunter2"})
//
// # Container format
//
// Containers are self-describing: a mode marker, a length-prefixed JSON
// header (filename, format version, timestamp, and either an embedded key
// or the KDF salt and parameters), a random 12-byte nonce, and the
// AES-256-GCM ciphertext with its tag. Everything needed for decryption
// except the secret itself travels in the container.
//
// # Security properties
//
//   - AES-256-GCM authenticated encryption; any tampering with ciphertext,
//     tag, or nonce yields the single unified ErrAuthentication.
//   - Argon2id (64 MB, t=3, p=1) for password-based derivation, dispatched
//     to a bounded worker pool so request-serving goroutines never carry
//     the cost.
//   - Secret key material lives in SecureKey values that are zeroed on
//     every exit path; transient decoded-key buffers are zeroed explicitly.
//   - Fresh random salts and nonces per operation, never reused or derived
//     from content.
//
// Key-mode containers embed a base64 copy of their own key in the header,
// making them self-decrypting. That is a deliberate convenience feature of
// the format, gated behind Credential.AllowEmbeddedKey so callers opt into
// it explicitly.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT
package crypto
