package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ValidationError carries field-level messages for a rejected product.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("invalid product: %s", strings.Join(keys, ", "))
}

// EventPublisher publishes product lifecycle events.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event rabbitmq.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	validate  *validator.Validate
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher may be nil, in
// which case no events are emitted.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, log *zap.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		log:       log,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates and stores a new product. Any client-supplied ID is
// discarded; the repository assigns one.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = ""
	if err := s.check(product); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.emit(ctx, rabbitmq.EventProductCreated, product)
	return nil
}

// UpdateProduct replaces the product identified by id with the given record.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, product *models.Product) error {
	product.ID = id
	if err := s.check(product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	s.emit(ctx, rabbitmq.EventProductUpdated, product)
	return nil
}

func (s *ProductService) check(product *models.Product) error {
	fields := make(map[string]string)
	if err := s.validate.Struct(product); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("failed to validate product: %w", err)
		}
		for _, e := range validationErrors {
			fields[fieldKey(e)] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	for i, v := range product.Variants {
		if v.Weight.IsNegative() || v.Price.IsNegative() {
			fields[fmt.Sprintf("variants[%d]", i)] = "Weight and price must not be negative"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldKey maps a validator namespace such as "Product.Variants[0].Stock" to
// the JSON-facing key "variants[0].stock".
func fieldKey(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = jsonName(p)
	}
	return strings.Join(parts, ".")
}

func jsonName(field string) string {
	switch {
	case field == "SKU":
		return "sku"
	case field == "ModelNumber":
		return "modelNumber"
	case field == "":
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func (s *ProductService) emit(ctx context.Context, eventType string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		SKU:        product.SKU,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish product event",
			zap.String("type", eventType),
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
	}
}
