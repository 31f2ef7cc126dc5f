package order

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Monetary fields go over the wire as plain numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PaymentMethod is a descriptor of how the customer intends to pay.
// Stored as metadata only; no charge is ever processed here.
type PaymentMethod struct {
	Type     string `json:"type"`
	Provider string `json:"provider,omitempty"`
	Last4    string `json:"last4,omitempty"`
}

// CustomerInfo is the contact snapshot embedded in an order at creation time.
type CustomerInfo struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Item is one product line of an order. Name, image and unit price are copied
// from the cart at creation time so later catalog changes never affect the order.
type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"-"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      string          `json:"customer_id"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total"`
	ItemsCount      int             `json:"items_count"`
	CustomerInfo    CustomerInfo    `json:"customer_info"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Items           []Item          `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Stats aggregates order counts and revenue over a time window.
type Stats struct {
	TotalOrders       int                        `json:"totalOrders"`
	TotalRevenue      decimal.Decimal            `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	StatusBreakdown   map[Status]int             `json:"statusBreakdown"`
	RevenueByStatus   map[Status]decimal.Decimal `json:"revenueByStatus"`
	TimeRange         string                     `json:"timeRange"`
	From              time.Time                  `json:"from"`
	To                time.Time                  `json:"to"`
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber builds a human-readable order number: ORD-<6 digits>-<5 chars>.
func NewOrderNumber(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteByte(orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))])
	}
	ts := fmt.Sprintf("%d", now.UnixMilli())
	return fmt.Sprintf("ORD-%s-%s", ts[len(ts)-6:], b.String())
}
