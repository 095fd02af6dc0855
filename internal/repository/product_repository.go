package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// validSortFields are the columns List may order by
var validSortFields = map[string]bool{
	"name":       true,
	"price":      true,
	"created_at": true,
	"stock":      true,
}

// IsValidSortField reports whether List accepts field as SortBy
func IsValidSortField(field string) bool {
	return validSortFields[field]
}

// ListOptions filters and pages a product listing. Page 0 returns every row.
type ListOptions struct {
	CategoryID *uuid.UUID
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  SortOrder
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, opts ListOptions) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)

	// LockForUpdate reads the given products with row locks held until the
	// surrounding transaction ends. Ids without a row are absent from the map.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}

type productRepository struct {
	db Querier
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db Querier) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, category_id, image_url, stock, created_at, updated_at`

// Create inserts a new product. An unknown category maps to domain.ErrInvalidCategory.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.ImageURL,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err, "fk_products_category") {
			return domain.ErrInvalidCategory
		}
		return errors.Wrap(err, "failed to create product")
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5,
		    image_url = $6, stock = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.CategoryID,
		product.ImageURL,
		product.Stock,
		product.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err, "fk_products_category") {
			return domain.ErrInvalidCategory
		}
		return errors.Wrap(err, "failed to update product")
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

// Delete removes a product. Products named by order lines cannot be removed.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "fk_order_items_product") {
			return domain.ErrProductInUse
		}
		return errors.Wrap(err, "failed to delete product")
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "failed to find product by ID")
	}

	return product, nil
}

// List retrieves products with optional category filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, opts ListOptions) ([]*domain.Product, int, error) {
	sortBy := opts.SortBy
	if !validSortFields[sortBy] {
		sortBy = "name"
	}

	sortOrder := opts.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderAsc
	}

	whereClause := ""
	args := []interface{}{}

	if opts.CategoryID != nil {
		whereClause = "WHERE category_id = $1"
		args = append(args, *opts.CategoryID)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count products")
	}

	// sortBy and sortOrder come from the whitelist above, never from the caller verbatim
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id ASC
	`, productColumns, whereClause, sortBy, sortOrder)

	query, args = paginate(query, args, opts.Page, opts.PageSize)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list products")
	}

	return products, total, nil
}

// Search matches name or description case-insensitively
func (r *productRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if strings.TrimSpace(query) == "" {
		return r.List(ctx, ListOptions{Page: page, PageSize: pageSize})
	}

	searchPattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, searchPattern).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count search results")
	}

	searchQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1
		ORDER BY name ASC, id ASC
	`
	searchQuery, args := paginate(searchQuery, []interface{}{searchPattern}, page, pageSize)

	products, err := r.queryProducts(ctx, searchQuery, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to search products")
	}

	return products, total, nil
}

// LockForUpdate locks rows in id order so concurrent callers naming the same
// products cannot deadlock each other.
func (r *productRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	locked := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	params := make([]string, len(ids))
	for i, id := range ids {
		params[i] = id.String()
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`

	products, err := r.queryProducts(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock products")
	}

	for _, product := range products {
		locked[product.ID] = product
	}
	return locked, nil
}

// UpdateStock sets the stock of one product
func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		if isCheckViolation(err, "products_stock_check") {
			return domain.InsufficientStock(id)
		}
		return errors.Wrap(err, "failed to update product stock")
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating products")
	}

	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.CategoryID,
		&product.ImageURL,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// paginate appends LIMIT/OFFSET placeholders after the existing args.
// A page below 1 leaves the query unbounded.
func paginate(query string, args []interface{}, page, pageSize int) (string, []interface{}) {
	if page < 1 || pageSize < 1 {
		return query, args
	}
	n := len(args)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	return query, append(args, pageSize, (page-1)*pageSize)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
