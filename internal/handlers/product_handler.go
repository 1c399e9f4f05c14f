package handlers

import (
	"errors"

	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes. The route names are the ones
// the inventory front-end calls.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/getproducts", h.HandleGetProducts)
	router.Get("/getproducts/:id", h.HandleGetProductByID)
	router.Post("/createproduct", h.HandleCreateProduct)
	router.Put("/updateproduct/:id", h.HandleUpdateProduct)
}

// HandleGetProducts returns every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		h.log.Error("failed to list products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch products",
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID returns a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		h.log.Error("failed to fetch product", zap.String("product_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch product",
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct stores a new product and returns it with its assigned ID.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		if resp, ok := validationResponse(c, err); ok {
			return resp
		}
		h.log.Error("failed to create product", zap.String("sku", product.SKU), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create product",
		})
	}

	h.log.Info("product created", zap.String("product_id", product.ID), zap.String("sku", product.SKU))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product with the request body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	if err := h.service.UpdateProduct(c.UserContext(), id, &product); err != nil {
		if resp, ok := validationResponse(c, err); ok {
			return resp
		}
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Product not found",
			})
		}
		h.log.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update product",
		})
	}

	h.log.Info("product updated", zap.String("product_id", id))
	return c.JSON(product)
}

func validationResponse(c *fiber.Ctx, err error) (error, bool) {
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"errors": verr.Fields,
	}), true
}
