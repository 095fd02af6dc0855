package repository

import (
	"context"
	"database/sql"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	CreateItems(ctx context.Context, items []domain.OrderItem) error
	UpdateTotal(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
}

type orderRepository struct {
	db Querier
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db Querier) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, status, total, created_at, updated_at`

// Create inserts the order header
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		string(order.Status),
		order.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err, "fk_orders_user") {
			return domain.ErrUserNotFound
		}
		return errors.Wrap(err, "failed to create order")
	}

	return nil
}

// CreateItems inserts the lines of one order, keeping their slice position
func (r *orderRepository) CreateItems(ctx context.Context, items []domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for position, item := range items {
		_, err := r.db.ExecContext(
			ctx,
			query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			position,
		)
		if err != nil {
			if isForeignKeyViolation(err, "fk_order_items_product") {
				return domain.ProductNotFound(item.ProductID)
			}
			return errors.Wrapf(err, "failed to create order item %d", position)
		}
	}

	return nil
}

// UpdateTotal writes order.Total
func (r *orderRepository) UpdateTotal(ctx context.Context, order *domain.Order) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET total = $2 WHERE id = $1`, order.ID, order.Total)
	if err != nil {
		return errors.Wrap(err, "failed to update order total")
	}

	return expectOneRow(result, domain.ErrOrderNotFound)
}

// UpdateStatus moves an order to status
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		if isCheckViolation(err, "orders_status_check") {
			return domain.ErrInvalidStatus
		}
		return errors.Wrap(err, "failed to update order status")
	}

	return expectOneRow(result, domain.ErrOrderNotFound)
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByIDForUser retrieves an order only if userID owns it. Someone else's
// order is reported exactly like a missing one.
func (r *orderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	return r.findOne(ctx, query, id, userID)
}

// ListByUser returns the user's orders newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`
	return r.list(ctx, query, userID)
}

// ListAll returns every order newest first
func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id ASC
	`
	return r.list(ctx, query)
}

func (r *orderRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan order")
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating orders")
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all orders in one query, each joined with
// the current product name, price and image for display.
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, len(orders))
	for i, order := range orders {
		order.Items = []domain.OrderItem{}
		byID[order.ID] = order
		ids[i] = order.ID.String()
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		       p.id, p.name, p.price, p.image_url
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return errors.Wrap(err, "failed to load order items")
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		summary := &domain.ProductSummary{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&summary.ID,
			&summary.Name,
			&summary.Price,
			&summary.ImageURL,
		)
		if err != nil {
			return errors.Wrap(err, "failed to scan order item")
		}
		item.Product = summary

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "error iterating order items")
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
