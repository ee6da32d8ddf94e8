package ledger

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

// Handler wires HTTP endpoints for the ledger module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleDelete)
	r.Post("/entries", h.handleEntry)
	r.Post("/exits", h.handleExit)
	r.Post("/devolutions", h.handleDevolution)
	r.Post("/transfers", h.handleTransfer)
	r.Post("/transfers/{id}/confirm", h.handleConfirmTransfer)
	r.Post("/reserves", h.handleReserve)
	r.Post("/reserves/confirm", h.handleConfirmReserves)
}

// currentOperator falls back to the logged-in user's name when the payload
// names no operator.
func currentOperator(r *http.Request, operator string) string {
	if operator != "" {
		return operator
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.Get("user_name")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Type:   q.Get("type"),
		Stock:  q.Get("stock"),
		Client: q.Get("client"),
	}
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if raw := q.Get("confirmed"); raw != "" {
		confirmed := raw == "true" || raw == "1"
		filter.Confirmed = &confirmed
	}

	items, total, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	t, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		h.logger.Error("delete transaction", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateEntry(r.Context(), EntryInput{
		Code: req.Code, EAN: req.EAN, Importer: req.Importer, Lot: req.Lot,
		Quantity: req.Quantity, Operator: currentOperator(r, req.Operator),
		Observation: req.Observation, RefCode: req.RefCode,
	})
	if err != nil {
		h.logger.Error("create entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleExit(w http.ResponseWriter, r *http.Request) {
	var req ExitRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateExit(r.Context(), ExitInput{
		Code: req.Code, EAN: req.EAN, Stock: req.Stock, Quantity: req.Quantity,
		Client: req.Client, Operator: currentOperator(r, req.Operator), Observation: req.Observation,
	})
	if err != nil {
		h.logger.Error("create exit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleDevolution(w http.ResponseWriter, r *http.Request) {
	var req DevolutionRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateDevolution(r.Context(), DevolutionInput{
		Code: req.Code, EAN: req.EAN, Stock: req.Stock, Quantity: req.Quantity,
		Client: req.Client, Operator: currentOperator(r, req.Operator), Observation: req.Observation,
	})
	if err != nil {
		h.logger.Error("create devolution", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateTransfer(r.Context(), TransferInput{
		Code: req.Code, EAN: req.EAN, Quantity: req.Quantity, Operator: currentOperator(r, req.Operator),
		Observation: req.Observation, Location: req.Location, Confirm: req.Confirm,
	})
	if err != nil {
		h.logger.Error("create transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req ConfirmTransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.ConfirmTransfer(r.Context(), ConfirmTransferInput{
		TransactionID: id, Quantity: req.Quantity,
		Operator: currentOperator(r, req.Operator), Location: req.Location,
	})
	if err != nil {
		h.logger.Error("confirm transfer", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.service.CreateReserve(r.Context(), ReserveInput{
		Code: req.Code, EAN: req.EAN, Stock: req.Stock, Quantity: req.Quantity,
		Client: req.Client, Operator: currentOperator(r, req.Operator),
		Observation: req.Observation, Intake: req.Intake,
	})
	if err != nil {
		h.logger.Error("create reserve", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleConfirmReserves(w http.ResponseWriter, r *http.Request) {
	var req ConfirmReservesRequest
	if !h.decode(w, r, &req) {
		return
	}
	exits, err := h.service.ConfirmReserves(r.Context(), ConfirmReservesInput{
		TransactionIDs: req.TransactionIDs, Operator: currentOperator(r, req.Operator),
	})
	if err != nil {
		h.logger.Error("confirm reserves", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exits": exits})
}
