// middleware.go: request logging.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		var evt *zerolog.Event
		if rec.status >= http.StatusInternalServerError {
			evt = s.log.Error()
		} else {
			evt = s.log.Info()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("bytes", r.ContentLength).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
