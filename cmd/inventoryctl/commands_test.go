package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory/internal/form"
	"inventory/internal/handlers"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBackend(t *testing.T) (*httptest.Server, *repositories.MemoryProductRepository) {
	t.Helper()
	repo := repositories.NewMemoryProductRepository()
	app := fiber.New()
	handlers.NewProductHandler(services.NewProductService(repo, nil, zap.NewNop()), zap.NewNop()).
		RegisterRoutes(app.Group("/api"))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv, repo
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--api-url", srv.URL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAddListEdit(t *testing.T) {
	srv, repo := newBackend(t)

	out, _, err := run(t, srv, "add",
		"--name", "Widget", "--brand", "Acme", "--category", "Tools", "--sku", "W-1",
		"--model-number", "M-100", "--description", "d",
		"--variant", "1,10,5", "--variant", "2.5,19.99,0")
	require.NoError(t, err)
	assert.Contains(t, out, "Product added successfully!")

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "M-100", products[0].ModelNumber)
	require.Len(t, products[0].Variants, 2)
	id := products[0].ID

	out, _, err = run(t, srv, "list", "--search", "ACME")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "1kg, $10, Stock: 5; 2.5kg, $19.99, Stock: 0")

	out, _, err = run(t, srv, "list", "--search", "nothing-matches")
	require.NoError(t, err)
	assert.NotContains(t, out, id)

	out, _, err = run(t, srv, "edit", id, "--set", "name=Widget Pro", "--variant-set", "1.stock=7", "--add-variant", "3,30,1")
	require.NoError(t, err)
	assert.Contains(t, out, "Product updated successfully!")
	assert.Contains(t, out, "Widget Pro")

	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", stored.Name)
	assert.Equal(t, "M-100", stored.ModelNumber)
	require.Len(t, stored.Variants, 3)
	assert.Equal(t, 7, stored.Variants[1].Stock)
}

func TestAddReportsValidationErrors(t *testing.T) {
	srv, repo := newBackend(t)

	_, errOut, err := run(t, srv, "add",
		"--name", "Widget", "--brand", "Acme", "--category", "Tools", "--description", "d",
		"--variant", "1,10,5")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "sku: SKU is required")

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestAddWithoutVariantValuesReportsAggregateError(t *testing.T) {
	srv, _ := newBackend(t)

	_, errOut, err := run(t, srv, "add",
		"--name", "Widget", "--brand", "Acme", "--category", "Tools", "--sku", "W-1", "--description", "d")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "variants: All variant fields (weight, price, stock) are required")
}

func TestShowMissingProduct(t *testing.T) {
	srv, _ := newBackend(t)

	_, errOut, err := run(t, srv, "show", "missing-id")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "Failed to fetch product")
}

func TestEditRejectsUnknownField(t *testing.T) {
	srv, repo := newBackend(t)
	_, _, err := run(t, srv, "add",
		"--name", "Widget", "--brand", "Acme", "--category", "Tools", "--sku", "W-1", "--description", "d",
		"--variant", "1,10,5")
	require.NoError(t, err)

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, _, err = run(t, srv, "edit", products[0].ID, "--set", "colour=red")
	assert.ErrorIs(t, err, form.ErrUnknownField)

	stored, err := repo.GetByID(context.Background(), products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", stored.Name)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "model-number", flagName("modelNumber"))
	assert.Equal(t, "sku", flagName("sku"))
}

func addWidgets(t *testing.T, srv *httptest.Server, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, _, err := run(t, srv, "add",
			"--name", fmt.Sprintf("Widget %d", i), "--brand", "Acme", "--category", "Tools",
			"--sku", fmt.Sprintf("W-%d", i), "--description", "d", "--variant", "1,10,5")
		require.NoError(t, err)
	}
}

func TestListPaginates(t *testing.T) {
	srv, _ := newBackend(t)
	addWidgets(t, srv, 3)

	out, _, err := run(t, srv, "list", "--page-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget 0")
	assert.Contains(t, out, "Widget 1")
	assert.NotContains(t, out, "Widget 2")
	assert.Contains(t, out, "Page 1 of 2, 3 products")

	out, _, err = run(t, srv, "list", "--page-size", "2", "--page", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "Widget 0")
	assert.Contains(t, out, "Widget 2")
	assert.Contains(t, out, "Page 2 of 2, 3 products")

	out, _, err = run(t, srv, "list", "--page-size", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget 2")
	assert.NotContains(t, out, "Page ")

	_, _, err = run(t, srv, "list", "--page", "0")
	assert.Error(t, err)
}

func TestListUsesConfiguredTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(slow.Close)
	t.Setenv("INVENTORY_HTTP_TIMEOUT", "50ms")

	_, errOut, err := run(t, slow, "list")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "Failed to fetch products")
}
