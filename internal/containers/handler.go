package containers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estoque-erp/estoque-erp/internal/platform/httpx"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// Handler wires HTTP endpoints for the containers module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the containers handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers container routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/conference", h.handleConference)
}

type conferenceRequest struct {
	Receipts []conferenceLine `json:"receipts" validate:"required,min=1,dive"`
}

type conferenceLine struct {
	ID               int64 `json:"id" validate:"required,gt=0"`
	QuantityReceived int64 `json:"quantity_received" validate:"gte=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	items, total, err := h.service.List(r.Context(), shared.NewPagination(page, limit, 0))
	if err != nil {
		h.logger.Error("list containers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) handleConference(w http.ResponseWriter, r *http.Request) {
	var req conferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	confirmations := make([]ReceiptConfirmation, 0, len(req.Receipts))
	for _, line := range req.Receipts {
		confirmations = append(confirmations, ReceiptConfirmation{ID: line.ID, QuantityReceived: line.QuantityReceived})
	}
	if err := h.service.ConfirmReceipts(r.Context(), currentActorID(r), confirmations); err != nil {
		h.logger.Error("conference failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func currentActorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
