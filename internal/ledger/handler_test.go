package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/estoque-erp/estoque-erp/internal/products"
	"github.com/estoque-erp/estoque-erp/internal/shared"
)

func ledgerRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/transactions", h.MountRoutes)
	return r
}

func reservePayload(t *testing.T, req ReserveRequest) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestHandlerReserveOperatorDefaultsFromSession(t *testing.T) {
	svc, mem := newTestService(houseProduct(1, "P1", products.Balances{Warehouse: 30}))
	router := ledgerRouter(NewHandler(nil, svc))

	sess := &shared.Session{}
	sess.Set("user_name", "maria")

	req := httptest.NewRequest(http.MethodPost, "/transactions/reserves",
		reservePayload(t, ReserveRequest{Code: "P1", Stock: "DEPOSITO", Quantity: 5, Client: "cliente"}))
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "maria", created.Operator)
	require.Equal(t, products.Balances{Warehouse: 25, WarehouseReserve: 5}, mem.balances(1))
}

func TestHandlerReserveExplicitOperatorWins(t *testing.T) {
	svc, _ := newTestService(houseProduct(1, "P1", products.Balances{Warehouse: 30}))
	router := ledgerRouter(NewHandler(nil, svc))

	sess := &shared.Session{}
	sess.Set("user_name", "maria")

	req := httptest.NewRequest(http.MethodPost, "/transactions/reserves",
		reservePayload(t, ReserveRequest{Code: "P1", Stock: "DEPOSITO", Quantity: 5, Client: "cliente", Operator: "bia"}))
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "bia", created.Operator)
}
