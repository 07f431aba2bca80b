// handlers.go: encrypt/decrypt/health endpoint handlers.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Amitminer/EncryptX/internal/crypto"
)

const defaultFilename = "file.bin"

// credentialFromHeaders maps the request headers onto an engine credential.
// x-password selects password mode, x-enc-key key mode; both at once is a
// client error. An absent or empty x-enc-key on decrypt opts into the
// embedded-key fallback.
func credentialFromHeaders(r *http.Request, embeddedFallback bool) (crypto.Credential, error) {
	password := r.Header.Get("x-password")
	keyB64 := r.Header.Get("x-enc-key")

	if password != "" && keyB64 != "" {
		return crypto.Credential{}, errors.New("cannot supply both x-password and x-enc-key")
	}

	cred := crypto.Credential{Password: password}
	if keyB64 != "" {
		key, err := crypto.KeyFromBase64(keyB64)
		if err != nil {
			return crypto.Credential{}, fmt.Errorf("invalid x-enc-key: %w", err)
		}
		if len(key) != crypto.KeySize {
			return crypto.Credential{}, fmt.Errorf("key is %d bytes after base64 decode, expected %d", len(key), crypto.KeySize)
		}
		cred.Key = key
	}

	if password == "" && keyB64 == "" {
		cred.AllowEmbeddedKey = embeddedFallback
	}

	return cred, nil
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	cred, err := credentialFromHeaders(r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := r.Header.Get("x-orig-filename")
	if filename == "" {
		filename = defaultFilename
	}

	res, err := s.engine.Encrypt(r.Context(), body, filename, cred)
	if err != nil {
		s.writeEngineError(w, r, err, "password")
		return
	}

	if res.GeneratedKey != "" {
		// The one place the generated key is surfaced; it is never logged.
		w.Header().Set("X-Generated-Key", res.GeneratedKey)
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="encrypted.xd"`)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Container)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	cred, err := credentialFromHeaders(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	secret := "key"
	if cred.Password != "" {
		secret = "password"
	}

	plaintext, filename, err := s.engine.Decrypt(r.Context(), body, cred)
	if err != nil {
		s.writeEngineError(w, r, err, secret)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(plaintext)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "EncryptX backend server api is running")
}

// readBody reads the request body under the configured size cap. On failure
// it writes the error response and returns ok=false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return body, true
}

// writeEngineError maps engine failures onto the endpoint contract. The
// authentication response is deliberately uniform: it never distinguishes a
// wrong secret from a tampered container.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error, secret string) {
	switch {
	case errors.Is(err, crypto.ErrWrongMethod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, crypto.ErrAuthentication):
		http.Error(w, fmt.Sprintf("Wrong %s or file is corrupt", secret), http.StatusUnauthorized)
	case errors.Is(err, crypto.ErrFormat):
		http.Error(w, "Invalid file format. The file may be corrupt or not a valid .xd file.", http.StatusBadRequest)
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal processing error", http.StatusInternalServerError)
	}
}
