package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gmlakar/zbirka/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeStoreError maps a store error onto a response: validation problems
// are the client's fault, anything else is reported as the fallback
// message with a 500.
func writeStoreError(w http.ResponseWriter, err error, message string) {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		jsonError(w, http.StatusBadRequest, verr.Error())
		return
	}
	slog.Error(message, "error", err)
	jsonError(w, http.StatusInternalServerError, message)
}
