package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
	"github.com/james-jasvin/Emotion-Recognizer/internal/metrics"
	"github.com/james-jasvin/Emotion-Recognizer/internal/middleware"
)

// NewRouter exposes the client's operational endpoints.
func NewRouter(logger infra.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/healthz", health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
