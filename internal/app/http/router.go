package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fieldquote/quotesync/internal/app/config"
	"fieldquote/quotesync/internal/app/http/handlers"
	"fieldquote/quotesync/internal/app/http/middleware"
)

func NewRouter(cfg config.Config, h *handlers.Handlers, reg *prometheus.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowOrigin))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/workflow/{status}", h.Workflow)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionToken(cfg)))

			r.Get("/quotes", h.ListQuotes)
			r.Post("/quotes", h.CreateQuote)
			r.Get("/quotes/{id}", h.GetQuote)
			r.Put("/quotes/{id}", h.UpdateQuote)
			r.Delete("/quotes/{id}", h.DeleteQuote)
			r.Put("/quotes/{id}/schedule", h.ScheduleQuote)
			r.Post("/quotes/{id}/status", h.ChangeStatus)
			r.Post("/quotes/{id}/advance", h.AdvanceQuote)
			r.Get("/quotes/{id}/pdf", h.QuotePDF)
			r.Post("/sync", h.Sync)
		})
	})

	return r
}

// sessionToken is the shared bearer checked locally. Supabase checks the
// user's own token, so it is only set for postgres.
func sessionToken(cfg config.Config) string {
	if cfg.Remote == config.RemotePostgres {
		return cfg.APIToken
	}
	return ""
}
