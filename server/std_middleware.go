package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/epdlink/adproxy/errorvault"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request")
		next(w, r)
	}
}

// RecoverMiddleware is the outermost safety net: a panic below it becomes a
// stored error record and a redirect, never a raw error page.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			record := errorvault.Record{
				Message: fmt.Sprintf("panic: %v", rec),
				Stack:   string(debug.Stack()),
				Path:    r.URL.Path,
				TimeUTC: time.Now().UTC(),
			}
			errorID, err := s.vault.Store(r.Context(), record)
			if err != nil {
				log.Err(err).Msg("Failed to store panic record")
				http.Redirect(w, r, RouteError, http.StatusFound)
				return
			}
			log.Error().Str("error_id", errorID).Interface("panic", rec).Msg("Recovered from panic")
			http.Redirect(w, r, RouteError+"?errorid="+errorID, http.StatusFound)
		}()
		next(w, r)
	}
}
