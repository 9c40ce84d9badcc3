package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aswathylr-builds/order-pipeline/metrics"
	"github.com/aswathylr-builds/order-pipeline/payment"
	"github.com/aswathylr-builds/order-pipeline/pipeline"
)

func testAPI(t *testing.T) (*api, http.Handler) {
	t.Helper()
	products, customers, orders := seedStores()
	registry := prometheus.NewRegistry()
	service := pipeline.NewService(pipeline.Deps{
		Products:  products,
		Customers: customers,
		Orders:    orders,
		Payments:  payment.NewDefaultDispatcher(payment.NeverFail{}),
		Metrics:   metrics.NewPipelineMetrics(registry),
		Logger:    zap.NewNop(),
	})
	a := newAPI(service, orders, nil, registry, zap.NewNop())
	return a, a.routes()
}

func postOrder(t *testing.T, h http.Handler, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validOrderBody() map[string]any {
	return map[string]any{
		"customer_id": "cust-1",
		"lines": []map[string]any{
			{"product_id": "prod-1", "quantity": 1},
		},
		"payment_method": "PIX",
		"payment_data": map[string]any{
			"method": "PIX",
			"pix": map[string]any{
				"pix_key":       "ana.souza@example.com",
				"user_document": "12345678901",
			},
		},
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	_, h := testAPI(t)

	rec := postOrder(t, h, validOrderBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Order.ID)
	assert.Equal(t, "COMPLETED", string(resp.Order.PaymentStatus))
	require.NotNil(t, resp.Payment)
	assert.Contains(t, resp.Payment.TransactionID, "PIX-")
}

func TestCreateOrderEndpointIdempotency(t *testing.T) {
	_, h := testAPI(t)
	headers := map[string]string{"Idempotency-Key": "req-42"}

	first := postOrder(t, h, validOrderBody(), headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postOrder(t, h, validOrderBody(), headers)
	require.Equal(t, http.StatusOK, second.Code)

	var resp orderResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&resp))
	assert.True(t, resp.Replayed)
}

func TestCreateOrderEndpointValidationFailure(t *testing.T) {
	_, h := testAPI(t)

	body := validOrderBody()
	body["customer_id"] = "cust-ghost"
	rec := postOrder(t, h, body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(pipeline.CodeCustomerNotFound), resp.Code)
}

func TestCreateOrderEndpointBadBody(t *testing.T) {
	_, h := testAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderEndpoint(t *testing.T) {
	_, h := testAPI(t)

	rec := postOrder(t, h, validOrderBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created orderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/orders/"+created.Order.ID, nil))
	require.Equal(t, http.StatusOK, getRec.Code)

	var fetched orderResponse
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&fetched))
	assert.Equal(t, created.Order.ID, fetched.Order.ID)

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/orders/ghost", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := testAPI(t)

	postOrder(t, h, validOrderBody(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderpipeline_orders_total")
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForCode(pipeline.CodeInvalidRequest))
	assert.Equal(t, http.StatusNotFound, statusForCode(pipeline.CodeProductsNotFound))
	assert.Equal(t, http.StatusConflict, statusForCode(pipeline.CodeStockConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForCode(pipeline.CodeValidationFailed))
	assert.Equal(t, http.StatusPaymentRequired, statusForCode(pipeline.CodePaymentFailed))
}
