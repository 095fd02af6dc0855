package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService defines the interface for placing and reading orders
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, lines []domain.OrderLine) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	txm    repository.TxManager
	orders repository.OrderRepository
	now    func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(txm repository.TxManager, orders repository.OrderRepository) OrderService {
	return &orderService{
		txm:    txm,
		orders: orders,
		now:    time.Now,
	}
}

// PlaceOrder records an order for userID in one transaction. Every line's
// product is re-read under a row lock, its stock checked and decremented and
// its current price captured on the item. Any failure leaves no trace.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []domain.OrderLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	var placed *domain.Order
	err := s.txm.WithinTx(ctx, func(repos repository.Repositories) error {
		now := s.now().UTC()
		order := &domain.Order{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    domain.OrderStatusPending,
			Total:     decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		ids := distinctProductIDs(lines)
		products, err := repos.Products().LockForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			product, ok := products[line.ProductID]
			if !ok {
				return domain.ProductNotFound(line.ProductID)
			}
			if product.Stock < line.Quantity {
				return domain.InsufficientStock(line.ProductID)
			}

			item := domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Product: &domain.ProductSummary{
					ID:       product.ID,
					Name:     product.Name,
					Price:    product.Price,
					ImageURL: product.ImageURL,
				},
			}
			product.Stock -= line.Quantity
			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		if err := repos.Orders().CreateItems(ctx, items); err != nil {
			return err
		}
		for _, id := range ids {
			if err := repos.Products().UpdateStock(ctx, id, products[id].Stock); err != nil {
				return err
			}
		}

		order.Total = total
		if err := repos.Orders().UpdateTotal(ctx, order); err != nil {
			return err
		}

		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return placed, nil
}

// ListUserOrders returns the user's orders newest first
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetUserOrder returns ErrOrderNotFound for orders owned by someone else
func (s *orderService) GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByIDForUser(ctx, orderID, userID)
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// UpdateOrderStatus changes status only. Totals and items are immutable.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	return s.orders.FindByID(ctx, orderID)
}

// distinctProductIDs keeps first-seen order
func distinctProductIDs(lines []domain.OrderLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
