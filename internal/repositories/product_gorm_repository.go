package repositories

import (
	"context"
	"errors"
	"fmt"

	"inventory/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Migrate creates or updates the product and variant tables.
func (r *GORMProductRepository) Migrate() error {
	if err := r.db.AutoMigrate(&models.Product{}, &models.Variant{}); err != nil {
		return fmt.Errorf("failed to migrate product tables: %w", err)
	}
	return nil
}

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// GetAll retrieves all products with their variants.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", orderedVariants).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", orderedVariants).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a product and its variants.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Variants {
		product.Variants[i].ID = 0
		product.Variants[i].ProductID = product.ID
		product.Variants[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces every field of an existing product, variants included.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.Select("id", "created_at").First(&existing, "id = ?", product.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %s: %w", product.ID, ErrProductNotFound)
			}
			return fmt.Errorf("failed to load product %s for update: %w", product.ID, err)
		}
		product.CreatedAt = existing.CreatedAt

		// Save writes all columns, including zero values.
		if err := tx.Omit("Variants").Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return fmt.Errorf("failed to replace variants of product %s: %w", product.ID, err)
		}
		if len(product.Variants) == 0 {
			return nil
		}
		for i := range product.Variants {
			product.Variants[i].ID = 0
			product.Variants[i].ProductID = product.ID
			product.Variants[i].Position = i
		}
		if err := tx.Create(&product.Variants).Error; err != nil {
			return fmt.Errorf("failed to replace variants of product %s: %w", product.ID, err)
		}
		return nil
	})
}
