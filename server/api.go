package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/aswathylr-builds/order-pipeline/metrics"
	"github.com/aswathylr-builds/order-pipeline/models"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/pipeline"
	"github.com/aswathylr-builds/order-pipeline/repository"
	"github.com/aswathylr-builds/order-pipeline/workflows"
)

const fulfillmentTaskQueue = "order-fulfillment-queue"

type api struct {
	service  *pipeline.Service
	orders   repository.OrderRepository
	temporal client.Client
	registry *prometheus.Registry
	logger   *zap.Logger
}

func newAPI(service *pipeline.Service, orders repository.OrderRepository, temporal client.Client, registry *prometheus.Registry, logger *zap.Logger) *api {
	return &api{
		service:  service,
		orders:   orders,
		temporal: temporal,
		registry: registry,
		logger:   logger,
	}
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/orders", a.createOrder)
	r.Get("/orders/{id}", a.getOrder)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(a.registry))

	return r
}

type orderResponse struct {
	Order      order.Snapshot `json:"order"`
	Payment    *paymentView   `json:"payment,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Replayed   bool           `json:"replayed,omitempty"`
	WorkflowID string         `json:"workflow_id,omitempty"`
}

type paymentView struct {
	TransactionID    string `json:"transaction_id"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

type errorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (a *api) createOrder(w http.ResponseWriter, r *http.Request) {
	var req pipeline.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    string(pipeline.CodeInvalidRequest),
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	result, err := a.service.CreateOrder(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	resp := orderResponse{
		Order:    result.Order.Snapshot(),
		Warnings: result.Validation.Warnings,
		Replayed: result.Replayed,
	}
	if result.Payment.TransactionID != "" {
		resp.Payment = &paymentView{
			TransactionID:    result.Payment.TransactionID,
			ProcessingTimeMs: result.Payment.ProcessingTimeMs,
		}
	}

	// Hand the accepted order to fulfillment. Failure to start the workflow
	// does not fail the request; the order is already persisted and paid.
	if a.temporal != nil && !result.Replayed {
		if wid, werr := a.startFulfillment(r, result.Order.ID()); werr != nil {
			a.logger.Warn("fulfillment start failed",
				zap.String("order_id", result.Order.ID()),
				zap.Error(werr))
		} else {
			resp.WorkflowID = wid
		}
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (a *api) startFulfillment(r *http.Request, orderID string) (string, error) {
	we, err := a.temporal.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        "order-fulfillment-" + orderID,
		TaskQueue: fulfillmentTaskQueue,
	}, workflows.FulfillmentWorkflow, models.FulfillmentInput{OrderID: orderID})
	if err != nil {
		return "", err
	}
	return we.GetID(), nil
}

func (a *api) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := a.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Code:    "ORDER_NOT_FOUND",
				Message: fmt.Sprintf("order %s not found", id),
			})
			return
		}
		a.logger.Error("order lookup failed", zap.String("order_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: "order lookup failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Order: o.Snapshot()})
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		a.logger.Error("order creation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: "order creation failed",
		})
		return
	}

	resp := errorResponse{
		Code:    string(perr.Code),
		Message: perr.Message,
	}
	if perr.Validation != nil {
		resp.Errors = perr.Validation.Errors
		resp.Warnings = perr.Validation.Warnings
	}
	writeJSON(w, statusForCode(perr.Code), resp)
}

func statusForCode(code pipeline.FailureCode) int {
	switch code {
	case pipeline.CodeInvalidRequest:
		return http.StatusBadRequest
	case pipeline.CodeCustomerNotFound, pipeline.CodeProductsNotFound:
		return http.StatusNotFound
	case pipeline.CodeProductUnavailable, pipeline.CodeStockConflict:
		return http.StatusConflict
	case pipeline.CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case pipeline.CodePaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
