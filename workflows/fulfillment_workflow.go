package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/aswathylr-builds/order-pipeline/models"
	"github.com/aswathylr-builds/order-pipeline/order"
)

// RetryPolicy configuration
type RetryPolicy = temporal.RetryPolicy

const (
	FulfillmentWorkflowName = "FulfillmentWorkflow"
	ShippingWorkflowName    = "ShippingWorkflow"
)

func defaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    10 * time.Second,
		ScheduleToStartTimeout: 5 * time.Second,
		RetryPolicy: &RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
}

// FulfillmentWorkflow drives an accepted order from Pending through
// Confirmed, Processing, Shipped and Delivered. Cancel signals are honored
// while the order is still Pending or Confirmed; expedite signals shorten
// the processing stage.
func FulfillmentWorkflow(ctx workflow.Context, input models.FulfillmentInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Fulfillment workflow started", "order_id", input.OrderID)

	state := &models.FulfillmentState{
		OrderID:     input.OrderID,
		Status:      string(order.StatusPending),
		Stage:       models.StageConfirmation,
		IsExpedited: input.IsExpedited,
		LastUpdated: workflow.Now(ctx),
	}

	cancelRequested := false

	cancelChannel := workflow.GetSignalChannel(ctx, models.SignalCancel)
	workflow.Go(ctx, func(ctx workflow.Context) {
		for {
			cancelChannel.Receive(ctx, nil)
			logger.Info("Cancel signal received", "order_id", input.OrderID)
			cancelRequested = true
		}
	})

	expediteChannel := workflow.GetSignalChannel(ctx, models.SignalExpedite)
	workflow.Go(ctx, func(ctx workflow.Context) {
		for {
			expediteChannel.Receive(ctx, nil)
			logger.Info("Expedite signal received", "order_id", input.OrderID)
			state.IsExpedited = true
			state.LastUpdated = workflow.Now(ctx)
		}
	})

	err := workflow.SetQueryHandler(ctx, models.QueryStatus, func() (*models.FulfillmentState, error) {
		return state, nil
	})
	if err != nil {
		logger.Error("Failed to register query handler", "error", err)
		return err
	}

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())

	cancelOrder := func(stage string) error {
		state.Stage = models.StageCancelled
		state.LastUpdated = workflow.Now(ctx)
		logger.Info("Cancelling order", "order_id", input.OrderID, "at_stage", stage)
		if err := workflow.ExecuteActivity(ctx, "CancelOrder", input.OrderID).Get(ctx, nil); err != nil {
			logger.Error("Order cancellation failed", "order_id", input.OrderID, "error", err)
			return err
		}
		state.Status = string(order.StatusCancelled)
		state.LastUpdated = workflow.Now(ctx)
		return nil
	}

	// Step 1: confirm, unless already cancelled.
	if cancelRequested {
		return cancelOrder(models.StageConfirmation)
	}
	if err := workflow.ExecuteActivity(ctx, "ConfirmOrder", input.OrderID).Get(ctx, nil); err != nil {
		logger.Error("Order confirmation failed", "order_id", input.OrderID, "error", err)
		return err
	}
	state.Status = string(order.StatusConfirmed)
	state.Stage = models.StageProcessing
	state.LastUpdated = workflow.Now(ctx)

	// Cancellation is still legal while merely confirmed.
	if cancelRequested {
		return cancelOrder(models.StageProcessing)
	}

	// Step 2: warehouse processing.
	logger.Info("Starting order processing", "order_id", input.OrderID, "expedited", state.IsExpedited)
	if err := workflow.ExecuteActivity(ctx, "ProcessOrder", input.OrderID, state.IsExpedited).Get(ctx, nil); err != nil {
		logger.Error("Order processing failed", "order_id", input.OrderID, "error", err)
		return err
	}
	state.Status = string(order.StatusProcessing)
	state.Stage = models.StageShipping
	state.LastUpdated = workflow.Now(ctx)

	// Step 3: shipping runs as a child workflow so carrier hand-off can be
	// retried and observed independently.
	childOptions := workflow.ChildWorkflowOptions{
		WorkflowID:               "shipping-" + input.OrderID,
		WorkflowExecutionTimeout: 2 * time.Minute,
		RetryPolicy: &RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
	childCtx := workflow.WithChildOptions(ctx, childOptions)

	var shipment models.ShipmentResult
	if err := workflow.ExecuteChildWorkflow(childCtx, ShippingWorkflowName, input.OrderID).Get(ctx, &shipment); err != nil {
		logger.Error("Shipping child workflow failed", "order_id", input.OrderID, "error", err)
		return err
	}
	state.Status = string(order.StatusShipped)
	state.Stage = models.StageDelivery
	state.LastUpdated = workflow.Now(ctx)
	logger.Info("Order shipped", "order_id", input.OrderID, "tracking_id", shipment.TrackingID)

	// Step 4: delivery.
	if err := workflow.ExecuteActivity(ctx, "DeliverOrder", input.OrderID).Get(ctx, nil); err != nil {
		logger.Error("Order delivery failed", "order_id", input.OrderID, "error", err)
		return err
	}
	state.Status = string(order.StatusDelivered)
	state.Stage = models.StageCompleted
	state.LastUpdated = workflow.Now(ctx)

	// Step 5: completion notification; never fails the workflow.
	if err := workflow.ExecuteActivity(ctx, "NotifyOrderCompleted", input.OrderID).Get(ctx, nil); err != nil {
		logger.Warn("Notification failed but order delivered", "order_id", input.OrderID, "error", err)
	}

	logger.Info("Fulfillment workflow completed", "order_id", input.OrderID)
	return nil
}
