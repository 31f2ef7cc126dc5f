package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderCreated struct {
	EventType   string          `json:"eventType"`
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	CustomerID  string          `json:"customerId"`
	Items       []OrderLine     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemsCount  int             `json:"itemsCount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type OrderStatusChanged struct {
	EventType      string    `json:"eventType"`
	OrderID        string    `json:"orderId"`
	CustomerID     string    `json:"customerId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Timestamp      time.Time `json:"timestamp"`
}
