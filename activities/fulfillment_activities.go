package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/aswathylr-builds/order-pipeline/events"
	"github.com/aswathylr-builds/order-pipeline/models"
	"github.com/aswathylr-builds/order-pipeline/order"
	"github.com/aswathylr-builds/order-pipeline/repository"
)

// FulfillmentActivities drives the post-acceptance order lifecycle. Each
// activity loads the aggregate, applies one named transition and persists
// the result, so an illegal transition surfaces as an activity error rather
// than silent state corruption.
type FulfillmentActivities struct {
	orders    repository.OrderRepository
	publisher events.Publisher
}

// NewFulfillmentActivities creates a new instance of FulfillmentActivities.
func NewFulfillmentActivities(orders repository.OrderRepository, publisher events.Publisher) *FulfillmentActivities {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &FulfillmentActivities{orders: orders, publisher: publisher}
}

func (a *FulfillmentActivities) transition(ctx context.Context, orderID string, eventType string, apply func(*order.Order) error) error {
	o, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	if err := apply(o); err != nil {
		if errors.Is(err, order.ErrInvalidTransition) || errors.Is(err, order.ErrInvalidPaymentTransition) {
			// Retrying an illegal transition can never succeed.
			return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTransition", err)
		}
		return err
	}
	if err := a.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("persist order %s: %w", orderID, err)
	}
	if perr := a.publisher.Publish(ctx, events.New(orderID, eventType, nil)); perr != nil && activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Warn("event publish failed", "order_id", orderID, "type", eventType, "error", perr)
	}
	return nil
}

// ConfirmOrder moves the order to Confirmed.
func (a *FulfillmentActivities) ConfirmOrder(ctx context.Context, orderID string) error {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Confirming order", "order_id", orderID)
	}
	return a.transition(ctx, orderID, events.TypeOrderConfirmed, (*order.Order).Confirm)
}

// ProcessOrder moves the order to Processing and simulates warehouse work,
// heartbeating while it runs.
func (a *FulfillmentActivities) ProcessOrder(ctx context.Context, orderID string, isExpedited bool) error {
	isActivityCtx := activity.IsActivity(ctx)
	if isActivityCtx {
		activity.GetLogger(ctx).Info("Processing order", "order_id", orderID, "expedited", isExpedited)
	}
	if err := a.transition(ctx, orderID, events.TypeOrderProcessing, (*order.Order).StartProcessing); err != nil {
		return err
	}

	processingTime := 2 * time.Second
	if isExpedited {
		processingTime = 1 * time.Second
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	done := time.After(processingTime)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if isActivityCtx {
				activity.GetLogger(ctx).Info("Order processing completed", "order_id", orderID)
			}
			return nil
		case <-ticker.C:
			if isActivityCtx {
				activity.RecordHeartbeat(ctx, "processing")
			}
		}
	}
}

// ShipOrder moves the order to Shipped and returns tracking details.
// Shipping an order whose payment is not completed fails with
// order.ErrInvalidTransition.
func (a *FulfillmentActivities) ShipOrder(ctx context.Context, orderID string) (*models.ShipmentResult, error) {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Shipping order", "order_id", orderID)
	}
	if err := a.transition(ctx, orderID, events.TypeOrderShipped, (*order.Order).Ship); err != nil {
		return nil, err
	}
	return &models.ShipmentResult{
		TrackingID: "TRK-" + uuid.NewString(),
		Carrier:    "default-carrier",
	}, nil
}

// DeliverOrder moves the order to Delivered, its terminal state.
func (a *FulfillmentActivities) DeliverOrder(ctx context.Context, orderID string) error {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Delivering order", "order_id", orderID)
	}
	return a.transition(ctx, orderID, events.TypeOrderDelivered, (*order.Order).Deliver)
}

// CancelOrder cancels the order; legal from Pending or Confirmed only.
func (a *FulfillmentActivities) CancelOrder(ctx context.Context, orderID string) error {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Cancelling order", "order_id", orderID)
	}
	return a.transition(ctx, orderID, events.TypeOrderCancelled, (*order.Order).Cancel)
}

// NotifyOrderCompleted emits the completion event. Failures here never fail
// the workflow.
func (a *FulfillmentActivities) NotifyOrderCompleted(ctx context.Context, orderID string) error {
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("Sending completion notification", "order_id", orderID)
	}
	return a.publisher.Publish(ctx, events.New(orderID, events.TypeOrderCompleted, nil))
}
