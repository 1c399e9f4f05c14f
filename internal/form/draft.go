package form

import (
	"errors"
	"fmt"
	"strconv"

	"inventory/internal/models"

	"github.com/shopspring/decimal"
)

// ErrUnknownField is returned when a field name is not part of the product or
// variant shape.
var ErrUnknownField = errors.New("unknown field")

// ProductField names a top-level scalar field of a product draft.
type ProductField string

const (
	FieldName        ProductField = "name"
	FieldBrand       ProductField = "brand"
	FieldCategory    ProductField = "category"
	FieldSKU         ProductField = "sku"
	FieldModelNumber ProductField = "modelNumber"
	FieldSupplier    ProductField = "supplier"
	FieldWarranty    ProductField = "warranty"
	FieldDescription ProductField = "description"
)

// ProductFields lists every ProductField in form order.
var ProductFields = []ProductField{
	FieldName, FieldBrand, FieldCategory, FieldSKU,
	FieldModelNumber, FieldSupplier, FieldWarranty, FieldDescription,
}

// ParseProductField maps a field name to its ProductField.
func ParseProductField(name string) (ProductField, error) {
	for _, f := range ProductFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: product field %q", ErrUnknownField, name)
}

// VariantField names a field of a variant row.
type VariantField string

const (
	FieldWeight VariantField = "weight"
	FieldPrice  VariantField = "price"
	FieldStock  VariantField = "stock"
)

// VariantFields lists every VariantField in form order.
var VariantFields = []VariantField{FieldWeight, FieldPrice, FieldStock}

// ParseVariantField maps a field name to its VariantField.
func ParseVariantField(name string) (VariantField, error) {
	for _, f := range VariantFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: variant field %q", ErrUnknownField, name)
}

// DraftVariant holds a variant row exactly as entered.
type DraftVariant struct {
	Weight string
	Price  string
	Stock  string
}

func (v *DraftVariant) field(f VariantField) *string {
	switch f {
	case FieldWeight:
		return &v.Weight
	case FieldPrice:
		return &v.Price
	case FieldStock:
		return &v.Stock
	}
	panic(fmt.Sprintf("form: unhandled variant field %q", f))
}

// Get returns the text of field f.
func (v DraftVariant) Get(f VariantField) string { return *v.field(f) }

// complete reports whether every field holds a usable number. Text that does
// not parse counts as empty, the way a numeric input reports it. Stock also
// accepts "5.0" or "1e3" but not a fractional count.
func (v DraftVariant) complete() bool {
	if v.Weight == "" || v.Price == "" || v.Stock == "" {
		return false
	}
	if _, err := decimal.NewFromString(v.Weight); err != nil {
		return false
	}
	if _, err := decimal.NewFromString(v.Price); err != nil {
		return false
	}
	if _, err := models.ParseStock(v.Stock); err != nil {
		return false
	}
	return true
}

// Draft is the in-progress, text-valued copy of a product being created or
// edited. ID is empty until the backend has stored the product.
type Draft struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	SKU         string
	ModelNumber string
	Supplier    string
	Warranty    string
	Description string
	Variants    []DraftVariant
}

// NewDraft returns an empty draft with a single empty variant.
func NewDraft() Draft {
	return Draft{Variants: []DraftVariant{{}}}
}

func (d *Draft) field(f ProductField) *string {
	switch f {
	case FieldName:
		return &d.Name
	case FieldBrand:
		return &d.Brand
	case FieldCategory:
		return &d.Category
	case FieldSKU:
		return &d.SKU
	case FieldModelNumber:
		return &d.ModelNumber
	case FieldSupplier:
		return &d.Supplier
	case FieldWarranty:
		return &d.Warranty
	case FieldDescription:
		return &d.Description
	}
	panic(fmt.Sprintf("form: unhandled product field %q", f))
}

// Get returns the text of field f.
func (d Draft) Get(f ProductField) string { return *d.field(f) }

// clone returns a copy that shares no variant storage with d.
func (d Draft) clone() Draft {
	variants := make([]DraftVariant, len(d.Variants))
	copy(variants, d.Variants)
	d.Variants = variants
	return d
}

// DraftFromProduct loads a stored product into an edit draft.
func DraftFromProduct(p models.Product) Draft {
	d := Draft{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		SKU:         p.SKU,
		ModelNumber: p.ModelNumber,
		Supplier:    p.Supplier,
		Warranty:    p.Warranty,
		Description: p.Description,
		Variants:    make([]DraftVariant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		d.Variants = append(d.Variants, DraftVariant{
			Weight: v.Weight.String(),
			Price:  v.Price.String(),
			Stock:  strconv.Itoa(v.Stock),
		})
	}
	return d
}

// Product converts the draft into the wire record. It fails only for drafts
// that do not pass Validate.
func (d Draft) Product() (models.Product, error) {
	p := models.Product{
		ID:          d.ID,
		Name:        d.Name,
		Brand:       d.Brand,
		Category:    d.Category,
		SKU:         d.SKU,
		ModelNumber: d.ModelNumber,
		Supplier:    d.Supplier,
		Warranty:    d.Warranty,
		Description: d.Description,
		Variants:    make([]models.Variant, 0, len(d.Variants)),
	}
	for i, v := range d.Variants {
		weight, err := decimal.NewFromString(v.Weight)
		if err != nil {
			return p, fmt.Errorf("variant %d weight: %w", i, err)
		}
		price, err := decimal.NewFromString(v.Price)
		if err != nil {
			return p, fmt.Errorf("variant %d price: %w", i, err)
		}
		stock, err := models.ParseStock(v.Stock)
		if err != nil {
			return p, fmt.Errorf("variant %d stock: %w", i, err)
		}
		p.Variants = append(p.Variants, models.Variant{Weight: weight, Price: price, Stock: stock})
	}
	return p, nil
}
