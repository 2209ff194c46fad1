// Package frontend contains the user-facing clients of the calculation API: a
// web page server that proxies to the backend, and an interactive console.
package frontend

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperengineering/abacus/internal/api"
	"github.com/hyperengineering/abacus/internal/calc"
	"github.com/hyperengineering/abacus/internal/query"
	"github.com/hyperengineering/abacus/pkg/client"
)

//go:embed static/index.html
var indexHTML []byte

// Backend is the part of the calculation API the front-ends use.
// *client.Client satisfies it.
type Backend interface {
	Calculate(ctx context.Context, num1, num2 float64) (*client.Result, error)
	History(ctx context.Context) ([]client.Record, error)
}

// NewPageRouter serves the calculator page at / and proxies GET /calculate
// to backend.
func NewPageRouter(backend Backend) *chi.Mux {
	r := chi.NewRouter()

	r.Use(api.RequestIDMiddleware)
	r.Use(api.LoggingMiddleware)
	r.Use(api.RecoveryMiddleware)

	r.Get("/", servePage)
	r.Get("/calculate", proxyCalculate(backend))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r, http.StatusNotFound, "")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// proxyCalculate forwards the operands to the backend. Operands are coerced
// the same way the backend coerces them, so the page always gets a result
// unless the backend is unreachable or failing.
func proxyCalculate(backend Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := query.Parse(r.URL.RawQuery)
		num1 := query.FloatOrZero(values, calc.ParamNum1)
		num2 := query.FloatOrZero(values, calc.ParamNum2)

		result, err := backend.Calculate(r.Context(), num1, num2)
		if err != nil {
			slog.Error("backend calculate failed",
				"component", "frontend",
				"error", err,
				"request_id", api.RequestIDFromContext(r.Context()),
			)
			api.WriteError(w, r, http.StatusBadGateway, "")
			return
		}

		data, err := json.Marshal(result)
		if err != nil {
			api.WriteError(w, r, http.StatusInternalServerError, "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}
