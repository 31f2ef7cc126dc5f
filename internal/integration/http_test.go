package integration

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unahshop/orders-service-go/internal/cartclient"
	httpserver "github.com/unahshop/orders-service-go/internal/http"
	"github.com/unahshop/orders-service-go/internal/order"
	"github.com/unahshop/orders-service-go/internal/testutil"
)

func newStack(t *testing.T, stub *cartStub) http.Handler {
	t.Helper()

	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)
	t.Cleanup(stub.srv.Close)

	repo := order.NewRepository(db)
	carts := cartclient.New(stub.srv.URL, 2*time.Second)
	svc := order.NewService(repo, carts, nil, log.New(io.Discard, "", 0))
	return httpserver.NewRouter(svc)
}

func TestHTTP_CreateThenFetchOrder(t *testing.T) {
	stub := newCartStub(`
		{"product_id":"p1","product_name":"Keyboard","quantity":2,"unit_price":29.99},
		{"product_id":"p2","product_name":"Mouse Pad","quantity":1,"unit_price":15.50}`)
	router := newStack(t, stub)

	body := `{
		"customer_id": "cust-1",
		"customerInfo": {"name": "Ada Lovelace", "email": "ada@example.com"},
		"paymentMethod": {"type": "credit_card", "last4": "4242"},
		"shippingAddress": {"street": "1 Main Street", "city": "Tegucigalpa",
			"state": "FM", "zipCode": "11101", "country": "Honduras"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Success bool        `json:"success"`
		Data    order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, created.Success)
	require.NotEmpty(t, created.Data.ID)
	require.Contains(t, rec.Body.String(), `"total":86.8`)

	// The order is immediately readable.
	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+created.Data.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var fetched struct {
		Data order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, created.Data.OrderNumber, fetched.Data.OrderNumber)
	require.Len(t, fetched.Data.Items, 2)

	// And shows up in the owner's listing.
	req = httptest.NewRequest(http.MethodGet, "/api/orders?customer_id=cust-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
}

func TestHTTP_StatusLifecycle(t *testing.T) {
	stub := newCartStub(`{"product_id":"p1","product_name":"Sticker","quantity":1,"unit_price":10.00}`)
	router := newStack(t, stub)

	body := `{
		"customer_id": "cust-1",
		"customerInfo": {"name": "Ada Lovelace", "email": "ada@example.com"},
		"paymentMethod": {"type": "paypal"},
		"shippingAddress": {"street": "1 Main Street", "city": "Tegucigalpa",
			"state": "FM", "zipCode": "11101"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// pending -> confirmed is allowed.
	req = httptest.NewRequest(http.MethodPut, "/api/orders/"+created.Data.ID+"/status",
		strings.NewReader(`{"status":"confirmed"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// confirmed -> delivered skips the lifecycle and is rejected.
	req = httptest.NewRequest(http.MethodPut, "/api/orders/"+created.Data.ID+"/status",
		strings.NewReader(`{"status":"delivered"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_status_transition")

	// A stranger's scoped update reads as not found.
	req = httptest.NewRequest(http.MethodPut,
		"/api/orders/"+created.Data.ID+"/status?customer_id=cust-2",
		strings.NewReader(`{"status":"cancelled"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
