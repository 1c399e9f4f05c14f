package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry in the inventory.
type Product struct {
	ID          string    `json:"id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" validate:"required,max=200"`
	Brand       string    `json:"brand" validate:"required,max=100"`
	Category    string    `json:"category" validate:"required,max=100"`
	SKU         string    `json:"sku" gorm:"index;type:varchar(100)" validate:"required,max=100"`
	ModelNumber string    `json:"modelNumber"`
	Supplier    string    `json:"supplier"`
	Warranty    string    `json:"warranty"`
	Description string    `json:"description" validate:"required,max=2000"`
	Variants    []Variant `json:"variants" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" validate:"required,min=1,dive"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Variant is a purchasable unit of a Product. Weight is in kilograms.
type Variant struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	ProductID string          `json:"-" gorm:"index;type:varchar(36)"`
	Position  int             `json:"-"`
	Weight    decimal.Decimal `json:"weight" gorm:"type:numeric"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric"`
	Stock     int             `json:"stock" validate:"gte=0"`
}

// ErrInvalidStock is returned when a stock value is not a whole, non-fractional
// number.
var ErrInvalidStock = errors.New("stock must be a whole number")

// ParseStock reads a stock count written as decimal text, such as "5", "5.0"
// or "1e3".
func ParseStock(s string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStock, s)
	}
	if !d.IsInteger() || !d.Equal(decimal.NewFromInt(d.IntPart())) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStock, s)
	}
	return int(d.IntPart()), nil
}

// UnmarshalJSON accepts stock as a JSON number or a numeric string, matching
// what decimal already allows for weight and price.
func (v *Variant) UnmarshalJSON(data []byte) error {
	type variant Variant
	aux := struct {
		*variant
		Stock json.RawMessage `json:"stock"`
	}{variant: (*variant)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Stock)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
	}
	stock, err := ParseStock(text)
	if err != nil {
		return err
	}
	v.Stock = stock
	return nil
}
