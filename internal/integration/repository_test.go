package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/unahshop/orders-service-go/internal/order"
	"github.com/unahshop/orders-service-go/internal/testutil"
)

func seedOrder(t *testing.T, repo order.Repository, customerID string, total string, items []order.Item) *order.Order {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	o := &order.Order{
		CustomerID:  customerID,
		Status:      order.StatusPending,
		TotalAmount: decimal.RequireFromString(total),
		ItemsCount:  len(items),
		CustomerInfo: order.CustomerInfo{
			Name:          "Ada Lovelace",
			Email:         "ada@example.com",
			PaymentMethod: order.PaymentMethod{Type: "credit_card", Last4: "4242"},
		},
		ShippingAddress: order.ShippingAddress{
			Street: "1 Main Street", City: "Tegucigalpa", State: "FM",
			ZipCode: "11101", Country: "Honduras",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx := context.Background()
	require.NoError(t, repo.CreateHeader(ctx, o))
	require.NoError(t, repo.InsertItems(ctx, o.ID, items))
	return o
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	repo := order.NewRepository(db)

	created := seedOrder(t, repo, "cust-1", "75.48", []order.Item{
		{ProductID: "p1", ProductName: "Keyboard", ProductImage: "k.jpg", Quantity: 2,
			UnitPrice:  decimal.RequireFromString("29.99"),
			TotalPrice: decimal.RequireFromString("59.98")},
		{ProductID: "p2", ProductName: "Mouse Pad", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("15.50"),
			TotalPrice: decimal.RequireFromString("15.50")},
	})

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.OrderNumber, fetched.OrderNumber)
	require.Equal(t, "cust-1", fetched.CustomerID)
	require.Equal(t, order.StatusPending, fetched.Status)
	require.True(t, fetched.TotalAmount.Equal(decimal.RequireFromString("75.48")))
	require.Equal(t, created.CustomerInfo, fetched.CustomerInfo)
	require.Equal(t, created.ShippingAddress, fetched.ShippingAddress)
	require.WithinDuration(t, created.CreatedAt, fetched.CreatedAt, time.Millisecond)
	require.Len(t, fetched.Items, 2)
	require.Equal(t, "Keyboard", fetched.Items[0].ProductName)
	require.True(t, fetched.Items[0].TotalPrice.Equal(decimal.RequireFromString("59.98")))
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	repo := order.NewRepository(db)
	_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestRepository_ListByOwner_FiltersAndSorts(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	repo := order.NewRepository(db)

	cheap := seedOrder(t, repo, "cust-1", "10.00", []order.Item{
		{ProductID: "p1", ProductName: "Sticker", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("10.00"),
			TotalPrice: decimal.RequireFromString("10.00")},
	})
	pricey := seedOrder(t, repo, "cust-1", "99.00", []order.Item{
		{ProductID: "p2", ProductName: "Monitor", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("99.00"),
			TotalPrice: decimal.RequireFromString("99.00")},
	})
	seedOrder(t, repo, "cust-2", "20.00", []order.Item{
		{ProductID: "p3", ProductName: "Cable", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("20.00"),
			TotalPrice: decimal.RequireFromString("20.00")},
	})

	orders, err := repo.ListByOwner(ctx, "cust-1", order.ListFilter{
		Limit: 10, OrderBy: "total", Direction: "asc",
	})
	require.NoError(t, err)
	require.Len(t, orders, 2, "other owners' orders must not show up")
	require.Equal(t, cheap.ID, orders[0].ID)
	require.Equal(t, pricey.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1, "listing hydrates line items")

	// Status filter.
	_, err = repo.UpdateStatus(ctx, pricey.ID, order.StatusConfirmed, "")
	require.NoError(t, err)

	orders, err = repo.ListByOwner(ctx, "cust-1", order.ListFilter{
		Status: order.StatusConfirmed, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, pricey.ID, orders[0].ID)
}

func TestRepository_UpdateStatus_OwnerScope(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	repo := order.NewRepository(db)

	o := seedOrder(t, repo, "cust-1", "10.00", []order.Item{
		{ProductID: "p1", ProductName: "Sticker", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("10.00"),
			TotalPrice: decimal.RequireFromString("10.00")},
	})

	// A stranger cannot move the order; to them it does not exist.
	_, err := repo.UpdateStatus(ctx, o.ID, order.StatusCancelled, "cust-2")
	require.ErrorIs(t, err, order.ErrNotFound)

	unchanged, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, unchanged.Status)

	// The owner can.
	updated, err := repo.UpdateStatus(ctx, o.ID, order.StatusCancelled, "cust-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusCancelled, updated.Status)
	require.True(t, updated.UpdatedAt.After(o.UpdatedAt))
}

func TestRepository_Search(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	repo := order.NewRepository(db)

	o := seedOrder(t, repo, "cust-1", "10.00", []order.Item{
		{ProductID: "p1", ProductName: "Sticker", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("10.00"),
			TotalPrice: decimal.RequireFromString("10.00")},
	})

	// Case-insensitive match on the embedded customer name.
	found, err := repo.Search(ctx, "ADA LOVE", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, o.ID, found[0].ID)

	// Match on the order number.
	found, err = repo.Search(ctx, o.OrderNumber, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = repo.Search(ctx, "no-such-thing", 10, 0)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestRepository_Stats(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	repo := order.NewRepository(db)

	seedOrder(t, repo, "cust-1", "10.00", []order.Item{
		{ProductID: "p1", ProductName: "Sticker", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("10.00"),
			TotalPrice: decimal.RequireFromString("10.00")},
	})
	o2 := seedOrder(t, repo, "cust-1", "30.01", []order.Item{
		{ProductID: "p2", ProductName: "Cable", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("30.01"),
			TotalPrice: decimal.RequireFromString("30.01")},
	})
	_, err := repo.UpdateStatus(ctx, o2.ID, order.StatusConfirmed, "")
	require.NoError(t, err)

	window := order.ResolveTimeWindow("30d", time.Now().UTC().Add(time.Minute))
	stats, err := repo.Stats(ctx, "cust-1", window)
	require.NoError(t, err)

	require.Equal(t, 2, stats.TotalOrders)
	require.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("40.01")))
	require.True(t, stats.AverageOrderValue.Equal(decimal.RequireFromString("20.01")))
	require.Equal(t, 1, stats.StatusBreakdown[order.StatusPending])
	require.Equal(t, 1, stats.StatusBreakdown[order.StatusConfirmed])
	require.Equal(t, 0, stats.StatusBreakdown[order.StatusDelivered])
	require.True(t, stats.RevenueByStatus[order.StatusConfirmed].Equal(decimal.RequireFromString("30.01")))
}

func TestRepository_DeleteCascadesItems(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	repo := order.NewRepository(db)

	o := seedOrder(t, repo, "cust-1", "10.00", []order.Item{
		{ProductID: "p1", ProductName: "Sticker", Quantity: 1,
			UnitPrice:  decimal.RequireFromString("10.00"),
			TotalPrice: decimal.RequireFromString("10.00")},
	})

	require.NoError(t, repo.Delete(ctx, o.ID))

	_, err := repo.GetByID(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrNotFound)

	var itemCount int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM order_items WHERE order_id = $1", o.ID).Scan(&itemCount))
	require.Zero(t, itemCount)

	// Deleting again is a no-op, not an error.
	require.NoError(t, repo.Delete(ctx, o.ID))
}
