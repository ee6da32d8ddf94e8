package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler manages report endpoints.
type Handler struct {
	client   *Client
	reporter *StockReporter
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, reporter *StockReporter, logger *slog.Logger) *Handler {
	return &Handler{client: client, reporter: reporter, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/stock.csv", h.stockCSV)
	r.Get("/stock.pdf", h.stockPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) stockCSV(w http.ResponseWriter, r *http.Request) {
	position, err := h.reporter.Build(r.Context())
	if err != nil {
		h.logger.Error("build stock report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data, err := position.CSV()
	if err != nil {
		h.logger.Error("render stock csv", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=estoque.csv")
	_, _ = w.Write(data)
}

func (h *Handler) stockPDF(w http.ResponseWriter, r *http.Request) {
	position, err := h.reporter.Build(r.Context())
	if err != nil {
		h.logger.Error("build stock report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	html, err := position.HTML()
	if err != nil {
		h.logger.Error("render stock html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render stock pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=estoque.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
