package transport

import (
	"context"
	"sync"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/google/uuid"
)

// calls counts invocations per method name
type calls struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *calls) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = make(map[string]int)
	}
	c.n[name]++
}

func (c *calls) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

type mockAuthService struct {
	calls
	tokens   auth.TokenService
	register func(username, email, password string) (*domain.User, error)
	login    func(email, password string) (*service.LoginResult, error)
	getUser  func(id uuid.UUID) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	m.hit("Register")
	return m.register(username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	m.hit("Login")
	return m.login(email, password)
}

func (m *mockAuthService) ValidateToken(token string) (*auth.Claims, error) {
	return m.tokens.Validate(token)
}

func (m *mockAuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.hit("GetUser")
	if m.getUser == nil {
		return nil, domain.ErrUserNotFound
	}
	return m.getUser(id)
}

// mockCatalogService answers from in-memory maps
type mockCatalogService struct {
	calls
	categories map[uuid.UUID]*domain.Category
	products   map[uuid.UUID]*domain.Product
	deleteErr  error
	lastList   repository.ListOptions
}

func newMockCatalog() *mockCatalogService {
	return &mockCatalogService{
		categories: make(map[uuid.UUID]*domain.Category),
		products:   make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	m.hit("CreateCategory")
	c := &domain.Category{ID: uuid.New(), Name: input.Name, Description: input.Description}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.hit("GetCategory")
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	m.hit("ListCategories")
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input service.CategoryInput) (*domain.Category, error) {
	m.hit("UpdateCategory")
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	c.Name, c.Description = input.Name, input.Description
	return c, nil
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	m.hit("DeleteCategory")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	m.hit("CreateProduct")
	if _, ok := m.categories[input.CategoryID]; !ok {
		return nil, domain.ErrInvalidCategory
	}
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.hit("GetProduct")
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalogService) ListProducts(ctx context.Context, opts repository.ListOptions) ([]*domain.Product, int, error) {
	m.hit("ListProducts")
	m.lastList = opts
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	total := len(out)
	if opts.Page > 0 && opts.PageSize < len(out) {
		out = out[:opts.PageSize]
	}
	return out, total, nil
}

func (m *mockCatalogService) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	m.hit("ListProductsByCategory")
	var out []*domain.Product
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	m.hit("SearchProducts")
	return nil, 0, nil
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	m.hit("UpdateProduct")
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p.Name, p.Price, p.Stock = input.Name, input.Price, input.Stock
	return p, nil
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	m.hit("DeleteProduct")
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type mockOrderService struct {
	calls
	place     func(userID uuid.UUID, lines []domain.OrderLine) (*domain.Order, error)
	orders    []*domain.Order
	lastLines []domain.OrderLine
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []domain.OrderLine) (*domain.Order, error) {
	m.hit("PlaceOrder")
	m.lastLines = lines
	return m.place(userID, lines)
}

func (m *mockOrderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.hit("ListUserOrders")
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderService) GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	m.hit("GetUserOrder")
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	m.hit("ListAllOrders")
	return m.orders, nil
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	m.hit("UpdateOrderStatus")
	for _, o := range m.orders {
		if o.ID == orderID {
			o.Status = status
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}
