package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/aswathylr-builds/order-pipeline/models"
)

// ShippingWorkflow is a child workflow that hands the order to the carrier.
func ShippingWorkflow(ctx workflow.Context, orderID string) (*models.ShipmentResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Shipping workflow started", "order_id", orderID)

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())

	var shipment models.ShipmentResult
	if err := workflow.ExecuteActivity(ctx, "ShipOrder", orderID).Get(ctx, &shipment); err != nil {
		logger.Error("Shipping failed", "order_id", orderID, "error", err)
		return nil, err
	}

	logger.Info("Shipping workflow completed", "order_id", orderID, "tracking_id", shipment.TrackingID)
	return &shipment, nil
}
