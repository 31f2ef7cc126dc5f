// Package cartclient talks to the cart service over HTTP.
//
// The cart service owns cart state; this client only reads a snapshot of the
// lines and requests a clear after a successful checkout.
package cartclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnreachable covers network failures, timeouts and 5xx answers from the
// cart service. The caller may retry as long as it has not written anything.
var ErrUnreachable = errors.New("cart service unreachable")

// ErrNoOwner is returned when an OwnerRef carries no identifier at all.
var ErrNoOwner = errors.New("owner reference requires userId, sessionId or customer_id")

// OwnerRef identifies the holder of a cart. Exactly one field is expected to
// be set per call.
type OwnerRef struct {
	UserID     string
	SessionID  string
	CustomerID string
}

// Resolve returns the canonical owner identifier used to scope orders.
// Customer id wins over user id; a session-only cart is scoped by session id.
func (r OwnerRef) Resolve() string {
	switch {
	case r.CustomerID != "":
		return r.CustomerID
	case r.UserID != "":
		return r.UserID
	default:
		return r.SessionID
	}
}

func (r OwnerRef) fetchQuery() (url.Values, error) {
	q := url.Values{}
	switch {
	case r.UserID != "":
		q.Set("userId", r.UserID)
	case r.SessionID != "":
		q.Set("sessionId", r.SessionID)
	case r.CustomerID != "":
		q.Set("customer_id", r.CustomerID)
	default:
		return nil, ErrNoOwner
	}
	return q, nil
}

func (r OwnerRef) clearQuery() (url.Values, error) {
	q := url.Values{}
	switch {
	case r.CustomerID != "" || r.UserID != "":
		q.Set("customer_id", r.Resolve())
	case r.SessionID != "":
		q.Set("sessionId", r.SessionID)
	default:
		return nil, ErrNoOwner
	}
	return q, nil
}

// Line is one cart entry as reported by the cart service.
type Line struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type cartEnvelope struct {
	Data struct {
		Items []Line `json:"items"`
	} `json:"data"`
}

type clearEnvelope struct {
	Data struct {
		Deleted int `json:"deleted"`
	} `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the cart service at baseURL. Every call is bounded
// by the given timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchCart returns the current cart lines for the owner. An empty slice is a
// valid result; interpreting it is the caller's business.
func (c *Client) FetchCart(ctx context.Context, ref OwnerRef) ([]Line, error) {
	q, err := ref.fetchQuery()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cart?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build cart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cart service returned %d", ErrUnreachable, resp.StatusCode)
	}

	var env cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode cart response: %v", ErrUnreachable, err)
	}
	return env.Data.Items, nil
}

// ClearCart asks the cart service to drop the owner's lines and returns the
// number of deleted entries. Callers treat failures as warnings: by the time
// this runs the order is already durable.
func (c *Client) ClearCart(ctx context.Context, ref OwnerRef) (int, error) {
	q, err := ref.clearQuery()
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/cart?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build clear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: cart service returned %d", ErrUnreachable, resp.StatusCode)
	}

	var env clearEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// The clear went through; a malformed count is not worth reporting.
		return 0, nil
	}
	return env.Data.Deleted, nil
}
