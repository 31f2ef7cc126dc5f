package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unahshop/orders-service-go/internal/order"
)

// OrderService is what the handlers need from the order layer.
type OrderService interface {
	CreateOrder(ctx context.Context, req *order.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, owner string, f order.ListFilter) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID, status, owner string) (*order.Order, error)
	SearchOrders(ctx context.Context, term string, limit, offset int) ([]order.Order, error)
	GetStats(ctx context.Context, owner, timeRange string) (*order.Stats, error)
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	// The creation saga makes two network hops plus three writes; give it
	// more room than the read paths.
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.svc.CreateOrder(ctx, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusCreated, o, "order created")
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, o, "")
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	owner := q.Get("customer_id")
	if owner == "" {
		owner = q.Get("userId")
	}
	if owner == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "userId or customer_id is required")
		return
	}

	filter, errFields := parseListFilter(q)
	if len(errFields) > 0 {
		writeValidationError(w, errFields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, owner, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    orders,
		Pagination: &pagination{
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: len(orders) == filter.Limit,
		},
	})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing orderId")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	owner := r.URL.Query().Get("customer_id")
	if owner == "" {
		owner = r.URL.Query().Get("userId")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.UpdateStatus(ctx, orderID, body.Status, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, o, "order status updated")
}

func (h *OrderHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	term := q.Get("q")
	if len(term) < 2 || len(term) > 100 {
		writeError(w, http.StatusBadRequest, "invalid_request", "q must be 2-100 characters")
		return
	}

	limit, offset, errFields := parsePagination(q)
	if len(errFields) > 0 {
		writeValidationError(w, errFields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.SearchOrders(ctx, term, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success:    true,
		Data:       orders,
		SearchTerm: term,
		Pagination: &pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: len(orders) == limit,
		},
	})
}

func (h *OrderHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	owner := q.Get("customer_id")
	if owner == "" {
		owner = q.Get("userId")
	}

	timeRange := q.Get("timeRange")
	switch timeRange {
	case "", "7d", "30d", "90d", "1y":
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "timeRange must be one of 7d, 30d, 90d, 1y")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.svc.GetStats(ctx, owner, timeRange)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, stats, "")
}

func parseListFilter(q url.Values) (order.ListFilter, []string) {
	limit, offset, fields := parsePagination(q)

	f := order.ListFilter{
		Limit:     limit,
		Offset:    offset,
		OrderBy:   "created_at",
		Direction: "desc",
	}

	if raw := q.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			fields = append(fields, "status must be one of pending, confirmed, processing, shipped, delivered, cancelled")
		} else {
			f.Status = status
		}
	}

	if by := q.Get("orderBy"); by != "" {
		switch by {
		case "created_at", "updated_at", "total", "order_number":
			f.OrderBy = by
		default:
			fields = append(fields, "orderBy must be one of created_at, updated_at, total, order_number")
		}
	}

	if dir := q.Get("orderDirection"); dir != "" {
		switch dir {
		case "asc", "desc":
			f.Direction = dir
		default:
			fields = append(fields, "orderDirection must be asc or desc")
		}
	}

	return f, fields
}

func parsePagination(q url.Values) (limit, offset int, fields []string) {
	limit = 10
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			fields = append(fields, "limit must be an integer between 1 and 100")
		} else {
			limit = n
		}
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, "offset must be a non-negative integer")
		} else {
			offset = n
		}
	}

	return limit, offset, fields
}
