// Package notify sends customer notifications through an asynq task queue.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeOrderConfirmation is the task type for order confirmation emails.
const TypeOrderConfirmation = "order:confirmation"

// QueueName is the asynq queue notification tasks are routed to.
const QueueName = "notifications"

// OrderConfirmation is the task payload sent after an order is placed.
type OrderConfirmation struct {
	OrderNumber   string    `json:"orderNumber"`
	CustomerName  string    `json:"customerName"`
	Email         string    `json:"email"`
	Total         string    `json:"total"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"paymentMethod"`
	DeliveryTime  string    `json:"deliveryTime"`
	ItemCount     int       `json:"itemCount"`
	PlacedAt      time.Time `json:"placedAt"`
}

// NewOrderConfirmationTask builds the asynq task. The order number doubles as
// the task id so a retried checkout does not send two emails.
func NewOrderConfirmationTask(p OrderConfirmation) (*asynq.Task, error) {
	if p.OrderNumber == "" || p.Email == "" {
		return nil, fmt.Errorf("order confirmation: order number and email are required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("order confirmation: encode payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, payload,
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.TaskID("order-confirmation:"+p.OrderNumber),
		asynq.Timeout(30*time.Second),
	), nil
}

func decodeOrderConfirmation(t *asynq.Task) (OrderConfirmation, error) {
	var p OrderConfirmation
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return OrderConfirmation{}, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return p, nil
}
