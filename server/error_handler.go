package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

const noDetailsMessage = "An error occurred. No details available."

// ErrorHandler renders a stored error record by its opaque id. An unknown or
// expired id is a normal outcome and renders the generic message.
func (s *Server) ErrorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		errorID := r.URL.Query().Get("errorid")
		if errorID == "" {
			fmt.Fprintln(w, noDetailsMessage)
			return
		}

		record, found, err := s.vault.Retrieve(r.Context(), errorID)
		if err != nil {
			log.Err(err).Str("error_id", errorID).Msg("Failed to read error details")
			found = false
		}
		if !found {
			fmt.Fprintln(w, noDetailsMessage)
			return
		}

		payload, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			fmt.Fprintln(w, noDetailsMessage)
			return
		}

		fmt.Fprintf(w, "Error %s\n\n%s\n", errorID, payload)
	}
}
