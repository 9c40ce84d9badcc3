// Package events defines the domain events emitted at pipeline milestones
// and the publishers that carry them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the pipeline and fulfillment workflow.
const (
	TypeOrderCreated      = "order.created"
	TypeOrderRejected     = "order.rejected"
	TypePaymentCaptured   = "payment.captured"
	TypePaymentRefunded   = "payment.refunded"
	TypeInventoryDeducted = "inventory.deducted"
	TypeInventoryReleased = "inventory.released"
	TypeOrderCompensated  = "order.compensated"
	TypeOrderConfirmed    = "order.confirmed"
	TypeOrderProcessing   = "order.processing"
	TypeOrderShipped      = "order.shipped"
	TypeOrderDelivered    = "order.delivered"
	TypeOrderCancelled    = "order.cancelled"
	TypeOrderCompleted    = "order.completed"
)

// Event is the envelope every publisher carries.
type Event struct {
	EventID   string         `json:"event_id"`
	OrderID   string         `json:"order_id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// New builds an event envelope with a fresh id.
func New(orderID, eventType string, payload map[string]any) Event {
	return Event{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Publisher delivers events to interested consumers. Publishing is
// best-effort from the pipeline's point of view: a failed publish never
// fails an order.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
