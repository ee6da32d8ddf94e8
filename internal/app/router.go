package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/estoque-erp/estoque-erp/internal/auth"
	"github.com/estoque-erp/estoque-erp/internal/containers"
	"github.com/estoque-erp/estoque-erp/internal/ledger"
	"github.com/estoque-erp/estoque-erp/internal/observability"
	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
	"github.com/estoque-erp/estoque-erp/jobs"
	"github.com/estoque-erp/estoque-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	AuthHandler       *auth.Handler
	ProductsHandler   *products.Handler
	ContainersHandler *containers.Handler
	LedgerHandler     *ledger.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(sub chi.Router) {
		params.AuthHandler.MountRoutes(sub)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireLogin)
		protected.Route("/products", func(sub chi.Router) {
			params.ProductsHandler.MountRoutes(sub)
		})
		protected.Route("/containers", func(sub chi.Router) {
			params.ContainersHandler.MountRoutes(sub)
		})
		protected.Route("/transactions", func(sub chi.Router) {
			params.LedgerHandler.MountRoutes(sub)
		})
		if params.ReportHandler != nil {
			protected.Route("/reports", func(sub chi.Router) {
				params.ReportHandler.MountRoutes(sub)
			})
		}
		if params.JobHandler != nil {
			protected.Route("/jobs", func(sub chi.Router) {
				params.JobHandler.MountRoutes(sub)
			})
		}
	})

	return r
}
