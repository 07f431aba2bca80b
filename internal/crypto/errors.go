// errors.go: error taxonomy for the EncryptX container format and crypto engine.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import "errors"

// Public sentinel errors for drop-in compatibility.
// These errors can be used with errors.Is() for error checking; the wrapped
// chain additionally carries a go-errors code for rich handling.
var (
	// ErrEncryption is returned when cipher setup or sealing fails.
	ErrEncryption = errors.New("crypto: encryption error")

	// ErrDecryption is returned for generic decrypt-path failures: malformed
	// header, unsupported legacy KDF, or a bad embedded key encoding.
	ErrDecryption = errors.New("crypto: decryption error")

	// ErrKeyDerivation is returned for bad salt lengths, invalid KDF
	// parameters, or a hashing failure.
	ErrKeyDerivation = errors.New("crypto: key derivation error")

	// ErrAuthentication is returned when AEAD tag verification fails.
	// It deliberately covers both a wrong secret and tampered data so that
	// callers cannot distinguish the two cases.
	ErrAuthentication = errors.New("crypto: authentication failed")

	// ErrFormat is returned for structurally invalid containers: too short,
	// or an inconsistent header length prefix.
	ErrFormat = errors.New("crypto: invalid container format")

	// ErrWrongMethod is returned when the container mode and the supplied
	// credential do not match. The wrapped message carries a usable hint.
	ErrWrongMethod = errors.New("crypto: wrong decryption method")

	// ErrAsync is returned when dispatching a derivation to the worker pool
	// fails, as opposed to the derivation itself failing.
	ErrAsync = errors.New("crypto: derivation dispatch error")

	// ErrCompression is returned when the post-decryption payload carries
	// the compression flag but cannot be decompressed. By the time this
	// fires the AEAD tag has already proven integrity, so it is kept
	// separate from ErrAuthentication.
	ErrCompression = errors.New("crypto: compression error")
)

// Error codes for rich error handling.
const (
	ErrCodeInvalidKey         = "CRYPTO_INVALID_KEY"
	ErrCodeCipherInit         = "CRYPTO_CIPHER_INIT"
	ErrCodeNonceGen           = "CRYPTO_NONCE_GEN"
	ErrCodeKeyGen             = "CRYPTO_KEY_GEN"
	ErrCodeSaltGen            = "CRYPTO_SALT_GEN"
	ErrCodeBase64Decode       = "CRYPTO_BASE64_DECODE"
	ErrCodeAuth               = "CRYPTO_AUTH"
	ErrCodeFormat             = "CRYPTO_FORMAT"
	ErrCodeWrongMethod        = "CRYPTO_WRONG_METHOD"
	ErrCodeHeaderEncode       = "CRYPTO_HEADER_ENCODE"
	ErrCodeHeaderDecode       = "CRYPTO_HEADER_DECODE"
	ErrCodeKDFSalt            = "CRYPTO_KDF_SALT"
	ErrCodeKDFParams          = "CRYPTO_KDF_PARAMS"
	ErrCodeKDFOutput          = "CRYPTO_KDF_OUTPUT"
	ErrCodeKDFUnsupported     = "CRYPTO_KDF_UNSUPPORTED"
	ErrCodeDispatch           = "CRYPTO_DISPATCH"
	ErrCodeDecompress         = "CRYPTO_DECOMPRESS"
	ErrCodeCredentialConflict = "CRYPTO_CREDENTIAL_CONFLICT"
	ErrCodeNoKey              = "CRYPTO_NO_KEY"
)
