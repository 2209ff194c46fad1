package api

import (
	"errors"
	"net/http"

	"github.com/hyperengineering/abacus/internal/calc"
)

// WriteError writes a plain-text error response. The body is the status text,
// followed by ": detail" when detail is non-empty.
func WriteError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	body := http.StatusText(status)
	if detail != "" {
		body += ": " + detail
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// MapServiceError converts service errors to error responses.
func MapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *calc.InputError
	switch {
	case errors.As(err, &inputErr):
		WriteError(w, r, http.StatusBadRequest, inputErr.Error())
	default:
		// Storage and unexpected failures; never expose internal details
		WriteError(w, r, http.StatusInternalServerError, "")
	}
}
