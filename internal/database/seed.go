package database

import (
	"context"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const seedAdminEmail = "admin@example.com"

var seedCategories = []struct{ name, description string }{
	{"Electronics", "Electronic devices and gadgets"},
	{"Clothing", "Shirts, pants, dresses, and other apparel"},
	{"Books", "Fiction, non-fiction, and reference books"},
	{"Home & Kitchen", "Home essentials and kitchen supplies"},
	{"Sports", "Sports equipment and accessories"},
}

var seedProducts = []struct {
	name, description, price, category string
	stock                              int
}{
	{"Smartphone", "Latest model smartphone with high-resolution camera", "699.99", "Electronics", 50},
	{"Laptop", "Powerful laptop for work and gaming", "1299.99", "Electronics", 25},
	{"T-Shirt", "Comfortable cotton t-shirt", "19.99", "Clothing", 100},
	{"Jeans", "Classic blue jeans", "49.99", "Clothing", 75},
	{"Programming Book", "Learn to code with this comprehensive guide", "34.99", "Books", 30},
}

// Seed fills an empty database with sample categories, an admin account and
// sample products. Each group is only written when its table has no rows, so
// running it again is a no-op.
func Seed(ctx context.Context, txm repository.TxManager, hasher auth.PasswordHasher, adminPassword string, logger *zap.Logger) error {
	now := time.Now().UTC()

	return txm.WithinTx(ctx, func(repos repository.Repositories) error {
		categories, err := repos.Categories().List(ctx)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			for _, c := range seedCategories {
				category := &domain.Category{ID: uuid.New(), Name: c.name, Description: c.description, CreatedAt: now}
				if err := repos.Categories().Create(ctx, category); err != nil {
					return errors.Wrapf(err, "seed category %s", c.name)
				}
				categories = append(categories, category)
			}
			logger.Info("Seeded categories", zap.Int("count", len(seedCategories)))
		}

		admins, err := repos.Users().CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if admins == 0 {
			hash, err := hasher.Hash(adminPassword)
			if err != nil {
				return errors.Wrap(err, "hash admin password")
			}
			admin := &domain.User{
				ID:           uuid.New(),
				Username:     "admin",
				Email:        seedAdminEmail,
				PasswordHash: hash,
				Role:         domain.RoleAdmin,
				CreatedAt:    now,
			}
			if err := repos.Users().Create(ctx, admin); err != nil {
				return errors.Wrap(err, "seed admin user")
			}
			logger.Info("Seeded admin user", zap.String("email", seedAdminEmail))
		}

		_, productCount, err := repos.Products().List(ctx, repository.ListOptions{Page: 1, PageSize: 1})
		if err != nil {
			return err
		}
		if productCount > 0 {
			return nil
		}

		byName := make(map[string]uuid.UUID, len(categories))
		for _, c := range categories {
			byName[c.Name] = c.ID
		}

		seeded := 0
		for _, p := range seedProducts {
			categoryID, ok := byName[p.category]
			if !ok {
				continue
			}
			product := &domain.Product{
				ID:          uuid.New(),
				Name:        p.name,
				Description: p.description,
				Price:       decimal.RequireFromString(p.price),
				CategoryID:  categoryID,
				ImageURL:    "https://via.placeholder.com/200x200.png?text=" + p.name,
				Stock:       p.stock,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repos.Products().Create(ctx, product); err != nil {
				return errors.Wrapf(err, "seed product %s", p.name)
			}
			seeded++
		}
		logger.Info("Seeded products", zap.Int("count", seeded))
		return nil
	})
}
