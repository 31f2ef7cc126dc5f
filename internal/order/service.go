package order

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unahshop/orders-service-go/internal/cartclient"
	"github.com/unahshop/orders-service-go/internal/pricing"
)

// CartStore is the slice of the cart service this package needs.
type CartStore interface {
	FetchCart(ctx context.Context, ref cartclient.OwnerRef) ([]cartclient.Line, error)
	ClearCart(ctx context.Context, ref cartclient.OwnerRef) (int, error)
}

// EventPublisher emits order lifecycle events. Implementations are best-effort;
// the service never fails an operation over a publish error.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderStatusChanged(ctx context.Context, o *Order, previous Status) error
}

// CreateOrderRequest is the inbound payload for order creation. Exactly one
// of UserID, SessionID or CustomerID identifies the cart owner.
type CreateOrderRequest struct {
	UserID     string `json:"userId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`

	CustomerInfo struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone,omitempty"`
	} `json:"customerInfo"`

	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

var validPaymentTypes = map[string]bool{
	"credit_card":      true,
	"debit_card":       true,
	"paypal":           true,
	"cash_on_delivery": true,
	"bank_transfer":    true,
}

// Validate checks the request shape and reports every violated field.
func (r *CreateOrderRequest) Validate() error {
	var fields []string

	owners := 0
	for _, id := range []string{r.UserID, r.SessionID, r.CustomerID} {
		if id != "" {
			owners++
		}
	}
	if owners != 1 {
		fields = append(fields, "exactly one of userId, sessionId or customer_id is required")
	}

	if len(r.CustomerInfo.Name) < 2 || len(r.CustomerInfo.Name) > 100 {
		fields = append(fields, "customerInfo.name must be 2-100 characters")
	}
	if _, err := mail.ParseAddress(r.CustomerInfo.Email); err != nil {
		fields = append(fields, "customerInfo.email must be a valid email address")
	}
	if p := r.CustomerInfo.Phone; p != "" && (len(p) < 10 || len(p) > 20) {
		fields = append(fields, "customerInfo.phone must be 10-20 characters")
	}

	if !validPaymentTypes[r.PaymentMethod.Type] {
		fields = append(fields, "paymentMethod.type must be one of credit_card, debit_card, paypal, cash_on_delivery, bank_transfer")
	}
	if l4 := r.PaymentMethod.Last4; l4 != "" && len(l4) != 4 {
		fields = append(fields, "paymentMethod.last4 must be exactly 4 characters")
	}

	if len(r.ShippingAddress.Street) < 5 {
		fields = append(fields, "shippingAddress.street must be at least 5 characters")
	}
	if len(r.ShippingAddress.City) < 2 {
		fields = append(fields, "shippingAddress.city must be at least 2 characters")
	}
	if len(r.ShippingAddress.State) < 2 {
		fields = append(fields, "shippingAddress.state must be at least 2 characters")
	}
	if len(r.ShippingAddress.ZipCode) < 3 {
		fields = append(fields, "shippingAddress.zipCode must be at least 3 characters")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (r *CreateOrderRequest) ownerRef() cartclient.OwnerRef {
	return cartclient.OwnerRef{
		UserID:     r.UserID,
		SessionID:  r.SessionID,
		CustomerID: r.CustomerID,
	}
}

// Service drives the order-creation saga and owns all order mutations.
type Service struct {
	repo   Repository
	carts  CartStore
	events EventPublisher
	logger *log.Logger
}

// NewService wires the saga coordinator. events may be nil to disable
// publishing.
func NewService(repo Repository, carts CartStore, events EventPublisher, logger *log.Logger) *Service {
	return &Service{repo: repo, carts: carts, events: events, logger: logger}
}

// CreateOrder turns the owner's live cart into a durable order:
//
//	validate -> fetch cart -> reject empty -> price -> persist header ->
//	persist items (compensate: delete header) -> re-read -> clear cart
//
// There is no shared transaction with the cart service, so the item-insert
// failure path explicitly deletes the just-created header before surfacing
// the error. Cart clearing is best-effort and never fails the order.
func (s *Service) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ref := req.ownerRef()
	lines, err := s.carts.FetchCart(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnreachable, err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	priced := pricing.Price(toPricingLines(lines))
	now := time.Now().UTC()

	header := &Order{
		CustomerID:  ref.Resolve(),
		Status:      StatusPending,
		TotalAmount: priced.Total,
		ItemsCount:  len(lines),
		CustomerInfo: CustomerInfo{
			Name:          req.CustomerInfo.Name,
			Email:         req.CustomerInfo.Email,
			Phone:         req.CustomerInfo.Phone,
			PaymentMethod: req.PaymentMethod,
		},
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if header.ShippingAddress.Country == "" {
		header.ShippingAddress.Country = "Honduras"
	}

	// Once the header write starts, a caller disconnect must not leave a
	// half-created order behind: the writes and the compensation run on a
	// context that survives cancellation.
	writeCtx := context.WithoutCancel(ctx)

	if err := s.repo.CreateHeader(writeCtx, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderPersistence, err)
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			OrderID:      header.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			TotalPrice:   lineTotal(l),
		})
	}

	if err := s.repo.InsertItems(writeCtx, header.ID, items); err != nil {
		// Compensate: an order header without its items must never be
		// observable.
		if delErr := s.repo.Delete(writeCtx, header.ID); delErr != nil {
			s.logger.Printf("CRITICAL: compensation failed, orphan order %s: %v", header.ID, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrLineItemPersistence, err)
	}

	created, err := s.repo.GetByID(writeCtx, header.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload created order: %v", ErrOrderPersistence, err)
	}

	s.clearCartBestEffort(writeCtx, ref, created.ID)

	if s.events != nil {
		if err := s.events.PublishOrderCreated(writeCtx, created); err != nil {
			s.logger.Printf("warn: publish OrderCreated for %s: %v", created.ID, err)
		}
	}

	return created, nil
}

func (s *Service) clearCartBestEffort(ctx context.Context, ref cartclient.OwnerRef, orderID string) {
	deleted, err := s.carts.ClearCart(ctx, ref)
	if err != nil {
		s.logger.Printf("warn: clear cart after order %s: %v", orderID, err)
		return
	}
	s.logger.Printf("cleared %d cart lines after order %s", deleted, orderID)
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, owner string, f ListFilter) ([]Order, error) {
	return s.repo.ListByOwner(ctx, owner, f)
}

// UpdateStatus validates the target status against the lifecycle graph before
// touching the store. When owner is non-empty the update only applies to
// orders held by that owner; anything else reads as not found.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, rawStatus string, owner string) (*Order, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if owner != "" && current.CustomerID != owner {
		return nil, ErrNotFound
	}
	if !current.Status.CanTransition(status) {
		return nil, &TransitionError{From: current.Status, To: status}
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, status, owner)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishOrderStatusChanged(ctx, updated, current.Status); err != nil {
			s.logger.Printf("warn: publish OrderStatusChanged for %s: %v", orderID, err)
		}
	}
	return updated, nil
}

func (s *Service) SearchOrders(ctx context.Context, term string, limit, offset int) ([]Order, error) {
	return s.repo.Search(ctx, term, limit, offset)
}

func (s *Service) GetStats(ctx context.Context, owner string, timeRange string) (*Stats, error) {
	window := ResolveTimeWindow(timeRange, time.Now().UTC())
	return s.repo.Stats(ctx, owner, window)
}

func toPricingLines(lines []cartclient.Line) []pricing.Line {
	out := make([]pricing.Line, len(lines))
	for i, l := range lines {
		out[i] = pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return out
}

func lineTotal(l cartclient.Line) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}
