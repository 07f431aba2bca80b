// server.go: HTTP server wiring and lifecycle.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

// Package server exposes the encryption engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/Amitminer/EncryptX/internal/config"
	"github.com/Amitminer/EncryptX/internal/crypto"
)

// Server serves the encrypt/decrypt API.
type Server struct {
	cfg    *config.Config
	engine *crypto.Engine
	log    zerolog.Logger
	http   *http.Server
}

// New builds a Server around an engine.
func New(cfg *config.Config, engine *crypto.Engine, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/encrypt", s.handleEncrypt).Methods(http.MethodPost)
	r.HandleFunc("/decrypt", s.handleDecrypt).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"x-enc-key", "x-password", "x-orig-filename", "content-type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Generated-Key"},
	})

	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      c.Handler(s.logRequests(r)),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	return s
}

// Run listens until ctx is cancelled, then shuts down gracefully, draining
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("server listening")
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
