// handlers_test.go: endpoint contract tests.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amitminer/EncryptX/internal/config"
	"github.com/Amitminer/EncryptX/internal/crypto"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
		KDFWorkers:     2,
	}
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return New(cfg, crypto.NewEngine(crypto.WithKDFWorkers(cfg.KDFWorkers)), log)
}

func doRequest(s *Server, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)
	return w
}

func TestEncryptDecrypt_KeyRoundTrip(t *testing.T) {
	s := testServer(t)
	plaintext := []byte("report contents")
	keyB64 := crypto.KeyToBase64(bytes.Repeat([]byte{0x42}, crypto.KeySize))

	enc := doRequest(s, http.MethodPost, "/encrypt", plaintext, map[string]string{
		"x-enc-key":       keyB64,
		"x-orig-filename": "report.txt",
	})
	require.Equal(t, http.StatusOK, enc.Code, enc.Body.String())
	assert.Equal(t, "application/octet-stream", enc.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="encrypted.xd"`, enc.Header().Get("Content-Disposition"))
	assert.Empty(t, enc.Header().Get("X-Generated-Key"), "explicit key must not surface a generated one")

	dec := doRequest(s, http.MethodPost, "/decrypt", enc.Body.Bytes(), map[string]string{
		"x-enc-key": keyB64,
	})
	require.Equal(t, http.StatusOK, dec.Code, dec.Body.String())
	assert.Equal(t, plaintext, dec.Body.Bytes())
	assert.Equal(t, `attachment; filename="report.txt"`, dec.Header().Get("Content-Disposition"))
}

func TestEncrypt_GeneratedKey(t *testing.T) {
	s := testServer(t)
	plaintext := []byte("no credential supplied")

	enc := doRequest(s, http.MethodPost, "/encrypt", plaintext, nil)
	require.Equal(t, http.StatusOK, enc.Code, enc.Body.String())

	keyB64 := enc.Header().Get("X-Generated-Key")
	require.NotEmpty(t, keyB64)

	// The returned key decrypts the container.
	dec := doRequest(s, http.MethodPost, "/decrypt", enc.Body.Bytes(), map[string]string{
		"x-enc-key": keyB64,
	})
	require.Equal(t, http.StatusOK, dec.Code, dec.Body.String())
	assert.Equal(t, plaintext, dec.Body.Bytes())

	// So does the embedded-key fallback when no key header is sent.
	dec = doRequest(s, http.MethodPost, "/decrypt", enc.Body.Bytes(), nil)
	require.Equal(t, http.StatusOK, dec.Code, dec.Body.String())
	assert.Equal(t, plaintext, dec.Body.Bytes())

	// Default filename applies when x-orig-filename is absent.
	assert.Equal(t, `attachment; filename="file.bin"`, dec.Header().Get("Content-Disposition"))
}

func TestDecrypt_WrongKeyIsUnauthorized(t *testing.T) {
	s := testServer(t)

	enc := doRequest(s, http.MethodPost, "/encrypt", []byte("data"), map[string]string{
		"x-enc-key": crypto.KeyToBase64(bytes.Repeat([]byte{0x01}, crypto.KeySize)),
	})
	require.Equal(t, http.StatusOK, enc.Code)

	dec := doRequest(s, http.MethodPost, "/decrypt", enc.Body.Bytes(), map[string]string{
		"x-enc-key": crypto.KeyToBase64(bytes.Repeat([]byte{0x02}, crypto.KeySize)),
	})
	assert.Equal(t, http.StatusUnauthorized, dec.Code)
	assert.Contains(t, dec.Body.String(), "Wrong key or file is corrupt")
}

func TestDecrypt_ModeMismatch(t *testing.T) {
	s := testServer(t)

	enc := doRequest(s, http.MethodPost, "/encrypt", []byte("data"), map[string]string{
		"x-enc-key": crypto.KeyToBase64(bytes.Repeat([]byte{0x01}, crypto.KeySize)),
	})
	require.Equal(t, http.StatusOK, enc.Code)

	// Password against a key-mode container fails fast as a client error,
	// never as an authentication failure.
	dec := doRequest(s, http.MethodPost, "/decrypt", enc.Body.Bytes(), map[string]string{
		"x-password": "hunter2",
	})
	assert.Equal(t, http.StatusBadRequest, dec.Code)
}

func TestBadRequests(t *testing.T) {
	s := testServer(t)

	cases := map[string]map[string]string{
		"both credentials": {"x-password": "pw", "x-enc-key": crypto.KeyToBase64(make([]byte, crypto.KeySize))},
		"invalid base64":   {"x-enc-key": "!!not-base64!!"},
		"short key":        {"x-enc-key": crypto.KeyToBase64([]byte("short"))},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/encrypt", []byte("x"), headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Garbage container.
	w := doRequest(s, http.MethodPost, "/decrypt", []byte{0x00, 0x01, 0x02}, map[string]string{
		"x-enc-key": crypto.KeyToBase64(make([]byte, crypto.KeySize)),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid file format")
}

func TestBodyLimit(t *testing.T) {
	s := testServer(t)
	s.cfg.MaxBodyBytes = 64

	w := doRequest(s, http.MethodPost, "/encrypt", bytes.Repeat([]byte{0xAA}, 128), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	w := doRequest(s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EncryptX backend server api is running", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/encrypt", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-password")
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
