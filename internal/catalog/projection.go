// Package catalog turns a fetched product collection into filtered,
// display-ready rows for the list view.
package catalog

import (
	"fmt"
	"strings"

	"inventory/internal/models"
)

// Row is the flattened, display-only form of a product. It cannot be turned
// back into a product; editing always reloads the product by ID.
type Row struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	SKU         string
	Description string
	Variants    string
}

// Projection holds a read-only snapshot of the product collection.
type Projection struct {
	products []models.Product
}

// NewProjection returns a projection over collection.
func NewProjection(collection []models.Product) *Projection {
	p := &Projection{}
	p.Load(collection)
	return p
}

// Load replaces the snapshot wholesale.
func (p *Projection) Load(collection []models.Product) {
	products := make([]models.Product, len(collection))
	copy(products, collection)
	p.products = products
}

// Len returns the number of products in the snapshot.
func (p *Projection) Len() int { return len(p.products) }

// Filter returns the products whose name, brand, category or SKU contains
// query, ignoring case. An empty query matches everything.
func (p *Projection) Filter(query string) []models.Product {
	q := strings.ToLower(query)
	matched := make([]models.Product, 0, len(p.products))
	for _, product := range p.products {
		if Matches(product, q) {
			matched = append(matched, product)
		}
	}
	return matched
}

// Rows filters the snapshot by query and flattens each match.
func (p *Projection) Rows(query string) []Row {
	matched := p.Filter(query)
	rows := make([]Row, 0, len(matched))
	for _, product := range matched {
		rows = append(rows, ToRow(product))
	}
	return rows
}

// Page returns the rows of the 1-based page when rows are split into pages of
// size, along with the page count. A size of zero or less keeps every row on a
// single page. Pages past the end are empty.
func Page(rows []Row, page, size int) ([]Row, int) {
	if size <= 0 {
		return rows, 1
	}
	pages := (len(rows) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []Row{}, pages
	}
	end := min(start+size, len(rows))
	return rows[start:end], pages
}

// Matches reports whether product matches lowerQuery, which must already be
// lower-cased.
func Matches(product models.Product, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	for _, field := range []string{product.Name, product.Brand, product.Category, product.SKU} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// ToRow flattens a single product.
func ToRow(product models.Product) Row {
	return Row{
		ID:          product.ID,
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    product.Category,
		SKU:         product.SKU,
		Description: product.Description,
		Variants:    FormatVariants(product.Variants),
	}
}

// FormatVariants renders variants as "<weight>kg, $<price>, Stock: <stock>"
// joined by "; ", in order.
func FormatVariants(variants []models.Variant) string {
	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		parts = append(parts, fmt.Sprintf("%skg, $%s, Stock: %d", v.Weight.String(), v.Price.String(), v.Stock))
	}
	return strings.Join(parts, "; ")
}
