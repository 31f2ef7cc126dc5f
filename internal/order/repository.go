package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the persistence boundary for orders and their line items.
//
// CreateHeader and InsertItems are deliberately separate calls: the creation
// saga owns the compensation between them (Delete on item failure), so the
// contract works against both single-transaction and two-statement backends.
type Repository interface {
	CreateHeader(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID string, items []Item) error
	Delete(ctx context.Context, orderID string) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByOwner(ctx context.Context, owner string, f ListFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status, owner string) (*Order, error)
	Search(ctx context.Context, term string, limit, offset int) ([]Order, error)
	Stats(ctx context.Context, owner string, window TimeWindow) (*Stats, error)
}

// ListFilter narrows and pages ListByOwner results.
type ListFilter struct {
	Status    Status
	Limit     int
	Offset    int
	OrderBy   string
	Direction string
}

// sortColumns whitelists ORDER BY targets so filters never reach SQL raw.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"total":        "total_amount",
	"total_amount": "total_amount",
	"order_number": "order_number",
}

func (f ListFilter) orderClause() string {
	col, ok := sortColumns[f.OrderBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.Direction == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}

// TimeWindow bounds a stats query.
type TimeWindow struct {
	Range string
	From  time.Time
	To    time.Time
}

// ResolveTimeWindow maps a range label (7d, 30d, 90d, 1y) onto absolute bounds
// ending now. Unknown labels fall back to 30 days.
func ResolveTimeWindow(label string, now time.Time) TimeWindow {
	var span time.Duration
	switch label {
	case "7d":
		span = 7 * 24 * time.Hour
	case "90d":
		span = 90 * 24 * time.Hour
	case "1y":
		span = 365 * 24 * time.Hour
	default:
		label = "30d"
		span = 30 * 24 * time.Hour
	}
	return TimeWindow{Range: label, From: now.Add(-span), To: now}
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const orderColumns = `id, order_number, customer_id, status, total_amount, items_count,
        customer_info, shipping_address, created_at, updated_at`

func (r *repo) CreateHeader(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(o.CreatedAt)
	}

	customerInfo, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return fmt.Errorf("marshal customer_info: %w", err)
	}
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping_address: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, order_number, customer_id, status, total_amount, items_count,
             customer_info, shipping_address, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.OrderNumber, o.CustomerID, o.Status, o.TotalAmount, o.ItemsCount,
		customerInfo, shipping, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repo) InsertItems(ctx context.Context, orderID string, items []Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_image,
                 quantity, unit_price, total_price)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, orderID, it.ProductID, it.ProductName, it.ProductImage,
			it.Quantity, it.UnitPrice, it.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes an order header and, via the FK cascade, its items. Deleting
// an order that no longer exists is not an error: the saga calls this
// speculatively while compensating.
func (r *repo) Delete(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repo) ListByOwner(ctx context.Context, owner string, f ListFilter) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1`
	args := []any{owner}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY " + f.orderClause()
	args = append(args, f.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryOrders(ctx, query, args...)
}

func (r *repo) UpdateStatus(ctx context.Context, orderID string, status Status, owner string) (*Order, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	args := []any{status, time.Now().UTC(), orderID}
	if owner != "" {
		// Ownership scope: an order that exists but belongs to someone else
		// looks exactly like a missing order to the caller.
		args = append(args, owner)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, orderID)
}

func (r *repo) Search(ctx context.Context, term string, limit, offset int) ([]Order, error) {
	pattern := "%" + term + "%"
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE order_number ILIKE $1
           OR customer_info->>'name' ILIKE $1
           OR customer_info->>'email' ILIKE $1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	return r.queryOrders(ctx, query, pattern, limit, offset)
}

func (r *repo) Stats(ctx context.Context, owner string, window TimeWindow) (*Stats, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
        FROM orders WHERE created_at >= $1 AND created_at <= $2`
	args := []any{window.From, window.To}
	if owner != "" {
		args = append(args, owner)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	query += " GROUP BY status"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{
		StatusBreakdown: make(map[Status]int, len(Statuses)),
		RevenueByStatus: make(map[Status]decimal.Decimal, len(Statuses)),
		TimeRange:       window.Range,
		From:            window.From,
		To:              window.To,
	}
	for _, s := range Statuses {
		stats.StatusBreakdown[s] = 0
		stats.RevenueByStatus[s] = decimal.Zero
	}

	for rows.Next() {
		var (
			status  Status
			count   int
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.StatusBreakdown[status] = count
		stats.RevenueByStatus[status] = revenue
		stats.TotalOrders += count
		stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	stats.TotalRevenue = stats.TotalRevenue.Round(2)
	stats.AverageOrderValue = decimal.Zero
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			DivRound(decimal.NewFromInt(int64(stats.TotalOrders)), 2)
	}

	return stats, nil
}

func (r *repo) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *repo) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_image,
                quantity, unit_price, total_price
         FROM order_items WHERE order_id = $1 ORDER BY id`,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.ProductImage, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o            Order
		customerInfo []byte
		shipping     []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.TotalAmount,
		&o.ItemsCount, &customerInfo, &shipping, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customerInfo, &o.CustomerInfo); err != nil {
		return nil, fmt.Errorf("unmarshal customer_info: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping_address: %w", err)
	}
	return &o, nil
}
