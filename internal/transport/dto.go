package transport

import (
	"encoding/json"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// money renders a decimal as a JSON number with two fraction digits
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// UserProfile is the public view of a user. The password hash never leaves the service.
type UserProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// CategoryResponse is the JSON form of a category
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// ProductResponse is the JSON form of a product
type ProductResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	CategoryID  string      `json:"category_id"`
	ImageURL    string      `json:"image_url"`
	Stock       int         `json:"stock"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		CategoryID:  p.CategoryID.String(),
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductList(products []*domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}
	return out
}

// OrderItemResponse is one order line. UnitPrice is what was charged;
// Product shows the product as it is now.
type OrderItemResponse struct {
	ID        string                  `json:"id"`
	ProductID string                  `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	UnitPrice json.Number             `json:"unit_price"`
	Subtotal  json.Number             `json:"subtotal"`
	Product   *ProductSummaryResponse `json:"product,omitempty"`
}

// ProductSummaryResponse is the display snapshot attached to an order line
type ProductSummaryResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	ImageURL string      `json:"image_url"`
}

// OrderResponse is the JSON form of an order
type OrderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Status    string              `json:"status"`
	Total     json.Number         `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Items     []OrderItemResponse `json:"items"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		resp := OrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Subtotal:  money(item.Subtotal()),
		}
		if item.Product != nil {
			resp.Product = &ProductSummaryResponse{
				ID:       item.Product.ID.String(),
				Name:     item.Product.Name,
				Price:    money(item.Product.Price),
				ImageURL: item.Product.ImageURL,
			}
		}
		items = append(items, resp)
	}

	return OrderResponse{
		ID:        o.ID.String(),
		UserID:    o.UserID.String(),
		Status:    o.Status.String(),
		Total:     money(o.Total),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
		Items:     items,
	}
}

func newOrderList(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}
