// format.go: encoding and parsing of the .xd container format.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	goerrors "github.com/agilira/go-errors"
	timecache "github.com/agilira/go-timecache"
)

// Container layout:
//
//	key-mode:      [4B header_len BE][KeyHeader JSON][12B nonce][ciphertext||tag]
//	password-mode: [1B 0xFF][4B header_len BE][PasswordHeader JSON][12B nonce][ciphertext||tag]
//
// The first byte selects the variant: 0xFF means password-mode. A JSON
// header can never start with 0xFF, so the marker is unambiguous.
const (
	// PasswordMarker is the leading byte of password-mode containers.
	PasswordMarker byte = 0xFF

	// KeyFormatVersion is written into key-mode headers.
	KeyFormatVersion uint8 = 2

	// PasswordFormatVersion is written into password-mode (Argon2) headers.
	PasswordFormatVersion uint8 = 3

	// KDFArgon2id names the only key derivation the codec currently
	// derives with. Containers recording the legacy "pbkdf2" identifier
	// parse but are rejected at decryption time.
	KDFArgon2id = "argon2id"

	headerLenSize = 4
)

// Mode identifies which container variant a byte buffer holds.
type Mode byte

const (
	// ModeKey is the key-based container variant.
	ModeKey Mode = iota

	// ModePassword is the password-based (KDF) container variant.
	ModePassword
)

// KeyHeader is the metadata block of a key-mode container.
type KeyHeader struct {
	// Filename is the original name of the encrypted file.
	Filename string `json:"filename"`

	// Key optionally embeds a base64 copy of the encryption key, which
	// makes the container self-decrypting. Convenience trade-off carried
	// over from the original format; see Engine for the opt-in gate.
	Key string `json:"key,omitempty"`

	// Version is the format version, currently KeyFormatVersion.
	Version uint8 `json:"version"`

	// Timestamp is the encryption time in Unix seconds.
	Timestamp uint64 `json:"timestamp"`
}

// PasswordHeader is the metadata block of a password-mode container. It
// records everything needed to reproduce the key derivation except the
// password itself.
type PasswordHeader struct {
	Filename string `json:"filename"`

	// Salt is the base64-encoded 32-byte derivation salt.
	Salt string `json:"salt"`

	// KDF identifies the derivation function ("argon2id", legacy "pbkdf2").
	KDF string `json:"kdf"`

	// Argon2 cost parameters, present when KDF is "argon2id".
	MemoryCost  *uint32 `json:"memory_cost"`
	TimeCost    *uint32 `json:"time_cost"`
	Parallelism *uint32 `json:"parallelism"`

	// Iterations is the legacy PBKDF2 iteration count.
	Iterations *uint32 `json:"iterations"`

	Version   uint8  `json:"version"`
	Timestamp uint64 `json:"timestamp"`
}

// NewKeyHeader builds a key-mode header stamped with the current time.
// keyB64 may be empty to omit the embedded key.
func NewKeyHeader(filename, keyB64 string) KeyHeader {
	return KeyHeader{
		Filename:  filename,
		Key:       keyB64,
		Version:   KeyFormatVersion,
		Timestamp: headerTimestamp(),
	}
}

// NewPasswordHeader builds a password-mode header recording the salt and
// the Argon2id parameters the key was derived with.
func NewPasswordHeader(filename string, salt []byte, params KDFParams) PasswordHeader {
	memory := params.Memory
	time := params.Time
	parallelism := uint32(params.Parallelism)
	return PasswordHeader{
		Filename:    filename,
		Salt:        KeyToBase64(salt),
		KDF:         KDFArgon2id,
		MemoryCost:  &memory,
		TimeCost:    &time,
		Parallelism: &parallelism,
		Version:     PasswordFormatVersion,
		Timestamp:   headerTimestamp(),
	}
}

func headerTimestamp() uint64 {
	return uint64(timecache.CachedTime().UTC().Unix()) // #nosec G115 -- Unix time is non-negative
}

// DetectMode inspects the first byte of a container.
func DetectMode(data []byte) (Mode, error) {
	if len(data) == 0 {
		return 0, formatError("container is empty")
	}
	if data[0] == PasswordMarker {
		return ModePassword, nil
	}
	return ModeKey, nil
}

// EncodeKeyContainer serializes a key-mode container.
func EncodeKeyContainer(header KeyHeader, nonce, ciphertext []byte) ([]byte, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeHeaderEncode, "header serialization failed")
		return nil, fmt.Errorf("%w: %w", ErrEncryption, richErr)
	}
	return assembleContainer(nil, headerJSON, nonce, ciphertext), nil
}

// EncodePasswordContainer serializes a password-mode container, prepending
// the marker byte.
func EncodePasswordContainer(header PasswordHeader, nonce, ciphertext []byte) ([]byte, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeHeaderEncode, "password header serialization failed")
		return nil, fmt.Errorf("%w: %w", ErrEncryption, richErr)
	}
	return assembleContainer([]byte{PasswordMarker}, headerJSON, nonce, ciphertext), nil
}

func assembleContainer(prefix, headerJSON, nonce, ciphertext []byte) []byte {
	var lenBuf [headerLenSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(headerJSON))) // #nosec G115 -- JSON headers are tiny

	out := make([]byte, 0, len(prefix)+headerLenSize+len(headerJSON)+len(nonce)+len(ciphertext))
	out = append(out, prefix...)
	out = append(out, lenBuf[:]...)
	out = append(out, headerJSON...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out
}

// DecodeKeyContainer parses a key-mode container into its header, nonce,
// and ciphertext regions. The nonce and ciphertext alias data.
//
// A buffer starting with the password marker fails with ErrWrongMethod
// before anything is parsed, so the caller gets actionable feedback instead
// of an authentication failure.
func DecodeKeyContainer(data []byte) (*KeyHeader, []byte, []byte, error) {
	if len(data) > 0 && data[0] == PasswordMarker {
		return nil, nil, nil, wrongMethodError("this is a password-encrypted file; a password is required for decryption")
	}
	if len(data) < headerLenSize {
		return nil, nil, nil, formatError("container shorter than header length prefix")
	}

	headerLen := binary.BigEndian.Uint32(data[:headerLenSize])
	headerEnd, err := containerBounds(len(data), headerLenSize, headerLen)
	if err != nil {
		return nil, nil, nil, err
	}

	var header KeyHeader
	if err := json.Unmarshal(data[headerLenSize:headerEnd], &header); err != nil {
		richErr := goerrors.Wrap(err, ErrCodeHeaderDecode, "invalid or corrupted header")
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrDecryption, richErr)
	}

	nonce := data[headerEnd : headerEnd+NonceSize]
	ciphertext := data[headerEnd+NonceSize:]
	return &header, nonce, ciphertext, nil
}

// DecodePasswordContainer parses a password-mode container. A buffer that
// does not start with the marker fails with ErrWrongMethod.
func DecodePasswordContainer(data []byte) (*PasswordHeader, []byte, []byte, error) {
	if len(data) == 0 {
		return nil, nil, nil, formatError("container is empty")
	}
	if data[0] != PasswordMarker {
		return nil, nil, nil, wrongMethodError("this file was not encrypted with a password; decrypt without providing one")
	}
	if len(data) < 1+headerLenSize {
		return nil, nil, nil, formatError("container shorter than header length prefix")
	}

	headerLen := binary.BigEndian.Uint32(data[1 : 1+headerLenSize])
	headerEnd, err := containerBounds(len(data), 1+headerLenSize, headerLen)
	if err != nil {
		return nil, nil, nil, err
	}

	var header PasswordHeader
	if err := json.Unmarshal(data[1+headerLenSize:headerEnd], &header); err != nil {
		richErr := goerrors.Wrap(err, ErrCodeHeaderDecode, "invalid password-based header")
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrDecryption, richErr)
	}

	nonce := data[headerEnd : headerEnd+NonceSize]
	ciphertext := data[headerEnd+NonceSize:]
	return &header, nonce, ciphertext, nil
}

// containerBounds validates that the buffer can hold the declared header
// plus a nonce, using uint64 arithmetic so a hostile length prefix cannot
// overflow the check. Returns the byte offset one past the header.
func containerBounds(total, prefix int, headerLen uint32) (int, error) {
	need := uint64(prefix) + uint64(headerLen) + uint64(NonceSize)
	if uint64(total) < need {
		return 0, formatError("container shorter than declared header and nonce")
	}
	return prefix + int(headerLen), nil
}

func formatError(msg string) error {
	richErr := goerrors.New(ErrCodeFormat, msg)
	return fmt.Errorf("%w: %w", ErrFormat, richErr)
}

func wrongMethodError(hint string) error {
	richErr := goerrors.New(ErrCodeWrongMethod, hint)
	return fmt.Errorf("%w: %w", ErrWrongMethod, richErr)
}
