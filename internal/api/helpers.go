package api

import (
	"encoding/json"
	"net/http"

	apperrors "bookinghub/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a booking-flow error to its HTTP status and always
// responds with a JSON body naming the failure; a failed dialog never
// closes silently on the client.
func writeError(w http.ResponseWriter, err error) {
	httpErr := apperrors.FromError(err)
	writeJSON(w, httpErr.Code, ErrorResponse{Error: httpErr.Message})
}
