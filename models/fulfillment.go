package models

import "time"

// Signal and query names for the fulfillment workflow.
const (
	SignalCancel   = "cancel"
	SignalExpedite = "expedite"
	QueryStatus    = "getStatus"
)

// Fulfillment stages as reported by the status query.
const (
	StageConfirmation = "confirmation"
	StageProcessing   = "processing"
	StageShipping     = "shipping"
	StageDelivery     = "delivery"
	StageCompleted    = "completed"
	StageCancelled    = "cancelled"
)

// FulfillmentInput starts a fulfillment workflow for an accepted order.
type FulfillmentInput struct {
	OrderID     string `json:"order_id"`
	IsExpedited bool   `json:"is_expedited"`
}

// FulfillmentState is the live workflow state exposed via the status query.
type FulfillmentState struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	Stage       string    `json:"stage"`
	IsExpedited bool      `json:"is_expedited"`
	LastUpdated time.Time `json:"last_updated"`
}

// ShipmentResult is returned by the shipping child workflow.
type ShipmentResult struct {
	TrackingID string `json:"tracking_id"`
	Carrier    string `json:"carrier"`
}
