package app

import (
	"net/http"
	"taskList/internal/config"
	"taskList/internal/handlers"
	"taskList/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

func NewRouter(h *handlers.TaskHandler, limiter middleware.Limiter, cfg *config.Config, tp trace.TracerProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceRoute)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.RateLimit(limiter, cfg.RateLimit.RequestsPerMinute))

	// go-chi/cors treats an empty origin list as "*", so no list means no CORS.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	h.Register(r)

	return otelhttp.NewHandler(r, "tasklist", otelhttp.WithTracerProvider(tp))
}
