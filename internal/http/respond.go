package http

import (
	"errors"
	"net/http"

	"github.com/unahshop/orders-service-go/internal/order"
)

// Response envelopes follow the storefront API convention: payloads under
// "data", failures under "error" with a stable machine-readable code.

type successResponse struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Message    string      `json:"message,omitempty"`
	SearchTerm string      `json:"searchTerm,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successResponse{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}

func writeValidationError(w http.ResponseWriter, fields []string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: errorBody{
			Code:    "invalid_request",
			Message: "request validation failed",
			Fields:  fields,
		},
	})
}

// writeDomainError maps the order failure taxonomy onto HTTP statuses and
// stable error codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		writeValidationError(w, vErr.Fields)
		return
	}

	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", "cannot order from an empty cart")
	case errors.Is(err, order.ErrCartUnreachable):
		writeError(w, http.StatusServiceUnavailable, "cart_unreachable", "cart service is unavailable, try again")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
	case errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, order.ErrOrderPersistence):
		writeError(w, http.StatusInternalServerError, "order_persistence_failed", "failed to save order")
	case errors.Is(err, order.ErrLineItemPersistence):
		writeError(w, http.StatusInternalServerError, "line_items_persistence_failed", "failed to save order items")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
