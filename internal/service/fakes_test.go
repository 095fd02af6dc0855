package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// memData is the state of the in-memory store. Values, not pointers, so a
// clone is a real snapshot.
type memData struct {
	users      map[uuid.UUID]domain.User
	categories map[uuid.UUID]domain.Category
	products   map[uuid.UUID]domain.Product
	orders     map[uuid.UUID]domain.Order
	items      map[uuid.UUID][]domain.OrderItem
}

func newMemData() *memData {
	return &memData{
		users:      map[uuid.UUID]domain.User{},
		categories: map[uuid.UUID]domain.Category{},
		products:   map[uuid.UUID]domain.Product{},
		orders:     map[uuid.UUID]domain.Order{},
		items:      map[uuid.UUID][]domain.OrderItem{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.items {
		c.items[k] = append([]domain.OrderItem(nil), v...)
	}
	return c
}

// memDB is a transactional in-memory stand-in for Postgres. WithinTx holds
// the lock for the whole unit of work, which is at least as strict as the
// row locks taken by the real repositories.
type memDB struct {
	mu   sync.Mutex
	data *memData

	// fail makes the named operation ("Orders.UpdateTotal") return the error
	fail map[string]error
	// calls counts every repository call by name
	calls map[string]int
}

func newMemDB() *memDB {
	return &memDB{data: newMemData(), fail: map[string]error{}, calls: map[string]int{}}
}

// Repos returns auto-committing repositories
func (db *memDB) Repos() repository.Repositories {
	return &memRepos{db: db}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	working := db.data.clone()
	if err := fn(&memRepos{db: db, tx: working}); err != nil {
		return err
	}
	db.data = working
	return nil
}

func (db *memDB) snapshot() *memData {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.data.clone()
}

type memRepos struct {
	db *memDB
	tx *memData
}

func (r *memRepos) Users() repository.UserRepository           { return memUsers{r} }
func (r *memRepos) Categories() repository.CategoryRepository { return memCategories{r} }
func (r *memRepos) Products() repository.ProductRepository     { return memProducts{r} }
func (r *memRepos) Orders() repository.OrderRepository         { return memOrders{r} }

// do runs fn against the transaction's data, or against the committed data
// under the lock when not in a transaction.
func (r *memRepos) do(op string, fn func(d *memData) error) error {
	if r.tx == nil {
		r.db.mu.Lock()
		defer r.db.mu.Unlock()
	}
	r.db.calls[op]++
	if err := r.db.fail[op]; err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	return fn(r.db.data)
}

type memUsers struct{ r *memRepos }

func (m memUsers) Create(ctx context.Context, user *domain.User) error {
	return m.r.do("Users.Create", func(d *memData) error {
		for _, u := range d.users {
			if u.Email == repository.NormalizeEmail(user.Email) {
				return domain.ErrDuplicateEmail
			}
		}
		stored := *user
		stored.Email = repository.NormalizeEmail(user.Email)
		d.users[user.ID] = stored
		return nil
	})
}

func (m memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found *domain.User
	err := m.r.do("Users.FindByEmail", func(d *memData) error {
		for _, u := range d.users {
			if u.Email == repository.NormalizeEmail(email) {
				u := u
				found = &u
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return found, err
}

func (m memUsers) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var found *domain.User
	err := m.r.do("Users.FindByID", func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (m memUsers) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	count := 0
	err := m.r.do("Users.CountByRole", func(d *memData) error {
		for _, u := range d.users {
			if u.Role == role {
				count++
			}
		}
		return nil
	})
	return count, err
}

type memCategories struct{ r *memRepos }

func (m memCategories) Create(ctx context.Context, category *domain.Category) error {
	return m.r.do("Categories.Create", func(d *memData) error {
		for _, c := range d.categories {
			if c.Name == category.Name {
				return domain.ErrCategoryExists
			}
		}
		d.categories[category.ID] = *category
		return nil
	})
}

func (m memCategories) Update(ctx context.Context, category *domain.Category) error {
	return m.r.do("Categories.Update", func(d *memData) error {
		if _, ok := d.categories[category.ID]; !ok {
			return domain.ErrCategoryNotFound
		}
		for id, c := range d.categories {
			if id != category.ID && c.Name == category.Name {
				return domain.ErrCategoryExists
			}
		}
		d.categories[category.ID] = *category
		return nil
	})
}

func (m memCategories) Delete(ctx context.Context, id uuid.UUID) error {
	return m.r.do("Categories.Delete", func(d *memData) error {
		if _, ok := d.categories[id]; !ok {
			return domain.ErrCategoryNotFound
		}
		for _, p := range d.products {
			if p.CategoryID == id {
				return domain.ErrCategoryInUse
			}
		}
		delete(d.categories, id)
		return nil
	})
}

func (m memCategories) List(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	err := m.r.do("Categories.List", func(d *memData) error {
		for _, c := range d.categories {
			c := c
			out = append(out, &c)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (m memCategories) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var found *domain.Category
	err := m.r.do("Categories.FindByID", func(d *memData) error {
		c, ok := d.categories[id]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		found = &c
		return nil
	})
	return found, err
}

func (m memCategories) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	count := 0
	err := m.r.do("Categories.CountProducts", func(d *memData) error {
		for _, p := range d.products {
			if p.CategoryID == id {
				count++
			}
		}
		return nil
	})
	return count, err
}

type memProducts struct{ r *memRepos }

func (m memProducts) Create(ctx context.Context, product *domain.Product) error {
	return m.r.do("Products.Create", func(d *memData) error {
		if _, ok := d.categories[product.CategoryID]; !ok {
			return domain.ErrInvalidCategory
		}
		d.products[product.ID] = *product
		return nil
	})
}

func (m memProducts) Update(ctx context.Context, product *domain.Product) error {
	return m.r.do("Products.Update", func(d *memData) error {
		if _, ok := d.products[product.ID]; !ok {
			return domain.ErrProductNotFound
		}
		if _, ok := d.categories[product.CategoryID]; !ok {
			return domain.ErrInvalidCategory
		}
		d.products[product.ID] = *product
		return nil
	})
}

func (m memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	return m.r.do("Products.Delete", func(d *memData) error {
		if _, ok := d.products[id]; !ok {
			return domain.ErrProductNotFound
		}
		for _, items := range d.items {
			for _, item := range items {
				if item.ProductID == id {
					return domain.ErrProductInUse
				}
			}
		}
		delete(d.products, id)
		return nil
	})
}

func (m memProducts) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var found *domain.Product
	err := m.r.do("Products.FindByID", func(d *memData) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (m memProducts) List(ctx context.Context, opts repository.ListOptions) ([]*domain.Product, int, error) {
	var out []*domain.Product
	err := m.r.do("Products.List", func(d *memData) error {
		for _, p := range d.products {
			if opts.CategoryID != nil && p.CategoryID != *opts.CategoryID {
				continue
			}
			p := p
			out = append(out, &p)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, len(out), err
}

func (m memProducts) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	all, _, err := m.List(ctx, repository.ListOptions{})
	if err != nil {
		return nil, 0, err
	}
	var out []*domain.Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m memProducts) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	locked := map[uuid.UUID]*domain.Product{}
	err := m.r.do("Products.LockForUpdate", func(d *memData) error {
		for _, id := range ids {
			if p, ok := d.products[id]; ok {
				locked[id] = &p
			}
		}
		return nil
	})
	return locked, err
}

func (m memProducts) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return m.r.do("Products.UpdateStock", func(d *memData) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		if stock < 0 {
			return domain.InsufficientStock(id)
		}
		p.Stock = stock
		d.products[id] = p
		return nil
	})
}

type memOrders struct{ r *memRepos }

func (m memOrders) Create(ctx context.Context, order *domain.Order) error {
	return m.r.do("Orders.Create", func(d *memData) error {
		stored := *order
		stored.Items = nil
		d.orders[order.ID] = stored
		return nil
	})
}

func (m memOrders) CreateItems(ctx context.Context, items []domain.OrderItem) error {
	return m.r.do("Orders.CreateItems", func(d *memData) error {
		for _, item := range items {
			if _, ok := d.products[item.ProductID]; !ok {
				return domain.ProductNotFound(item.ProductID)
			}
			item.Product = nil
			d.items[item.OrderID] = append(d.items[item.OrderID], item)
		}
		return nil
	})
}

func (m memOrders) UpdateTotal(ctx context.Context, order *domain.Order) error {
	return m.r.do("Orders.UpdateTotal", func(d *memData) error {
		o, ok := d.orders[order.ID]
		if !ok {
			return domain.ErrOrderNotFound
		}
		o.Total = order.Total
		d.orders[order.ID] = o
		return nil
	})
}

func (m memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	return m.r.do("Orders.UpdateStatus", func(d *memData) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		o.Status = status
		d.orders[id] = o
		return nil
	})
}

func (m memOrders) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var found *domain.Order
	err := m.r.do("Orders.FindByID", func(d *memData) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		found = d.withItems(o)
		return nil
	})
	return found, err
}

func (m memOrders) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	var found *domain.Order
	err := m.r.do("Orders.FindByIDForUser", func(d *memData) error {
		o, ok := d.orders[id]
		if !ok || o.UserID != userID {
			return domain.ErrOrderNotFound
		}
		found = d.withItems(o)
		return nil
	})
	return found, err
}

func (m memOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return m.list("Orders.ListByUser", func(o domain.Order) bool { return o.UserID == userID })
}

func (m memOrders) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return m.list("Orders.ListAll", func(domain.Order) bool { return true })
}

func (m memOrders) list(op string, keep func(domain.Order) bool) ([]*domain.Order, error) {
	out := []*domain.Order{}
	err := m.r.do(op, func(d *memData) error {
		for _, o := range d.orders {
			if keep(o) {
				out = append(out, d.withItems(o))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (d *memData) withItems(o domain.Order) *domain.Order {
	o.Items = []domain.OrderItem{}
	for _, item := range d.items[o.ID] {
		if p, ok := d.products[item.ProductID]; ok {
			item.Product = &domain.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}
		}
		o.Items = append(o.Items, item)
	}
	return &o
}
