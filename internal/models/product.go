// internal/models/product.go
package models

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	ProductID   string           `json:"product_id" gorm:"uniqueIndex;size:100;not null"`
	Name        string           `json:"name" gorm:"size:255;not null"`
	Category    ProductCategory  `json:"category" gorm:"type:varchar(20);not null;index"`
	Brand       string           `json:"brand" gorm:"size:100;index"`
	Memory      string           `json:"memory" gorm:"size:50"`
	Condition   ProductCondition `json:"condition" gorm:"type:varchar(20);default:'new'"`
	Battery     string           `json:"battery" gorm:"size:50"`
	Description string           `json:"description" gorm:"type:text"`
	Image       string           `json:"image" gorm:"size:255"`
	Price       float64          `json:"price" gorm:"type:decimal(10,2);not null"`
	PriorPrice  float64          `json:"prior_price,omitempty" gorm:"type:decimal(10,2)"`
	Stock       int              `json:"stock" gorm:"default:0"`
	Rating      float64          `json:"rating" gorm:"type:decimal(3,2);default:0"`
	IsNew       bool             `json:"is_new" gorm:"default:false"`
	OnSale      bool             `json:"on_sale" gorm:"default:false;index"`
	Active      bool             `json:"active" gorm:"default:true;index"`

	// Base option lists shown when the variant table has no coverage.
	Colors   pq.StringArray `json:"colors" gorm:"type:text[]"`
	Memories pq.StringArray `json:"memories" gorm:"type:text[]"`

	Variants []Variant `json:"variants,omitempty" gorm:"foreignKey:ProductRef;constraint:OnDelete:CASCADE"`
}

// Variant is a priced/stocked (color, memory) combination overriding the
// product's base values when selected. Price and Stock are pointers: a nil
// field falls back to the product's base value at resolution time.
type Variant struct {
	BaseModel
	ProductRef uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Color      string    `json:"color" gorm:"size:50"`
	Memory     string    `json:"memory" gorm:"size:50"`
	Battery    string    `json:"battery" gorm:"size:50"`
	Price      *float64  `json:"price,omitempty" gorm:"type:decimal(10,2)"`
	Stock      *int      `json:"stock,omitempty"`
}

var ErrPriorPriceTooLow = errors.New("prior price must exceed current price for on-sale products")

// BeforeSave enforces the discount invariant and clamps negative stock.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.OnSale && p.PriorPrice > 0 && p.PriorPrice <= p.Price {
		return ErrPriorPriceTooLow
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

// Available reports whether the product can currently be sold.
func (p *Product) Available() bool {
	return p.Active && p.Stock > 0
}

// DiscountPercent returns the rounded discount against the prior price.
func (p *Product) DiscountPercent() int {
	if p.PriorPrice <= 0 || p.PriorPrice <= p.Price {
		return 0
	}
	return int(math.Round((p.PriorPrice - p.Price) / p.PriorPrice * 100))
}

// VariantResolution is the effective price/stock/battery for a selection.
// Matched is false when the selection fell back to the product's base values.
type VariantResolution struct {
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Battery string  `json:"battery"`
	Matched bool    `json:"matched"`
}

const batteryUnspecified = "unspecified"

// ResolveVariant resolves the effective price, stock and battery for a
// (color, memory) selection. An empty dimension acts as a wildcard; the first
// matching variant wins. Missing variant fields fall back to base values, and
// a selection with no match returns base values so the caller never blocks on
// incomplete variant coverage.
func (p *Product) ResolveVariant(color, memory string) VariantResolution {
	res := VariantResolution{
		Price:   p.Price,
		Stock:   p.Stock,
		Battery: p.Battery,
	}
	if res.Battery == "" {
		res.Battery = batteryUnspecified
	}

	color = strings.TrimSpace(color)
	memory = strings.TrimSpace(memory)
	if len(p.Variants) == 0 || (color == "" && memory == "") {
		return res
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		vColor := strings.TrimSpace(v.Color)
		vMemory := strings.TrimSpace(v.Memory)

		if color != "" && vColor != color {
			continue
		}
		if memory != "" && vMemory != memory {
			continue
		}

		res.Matched = true
		if v.Price != nil {
			res.Price = *v.Price
		}
		if v.Stock != nil {
			res.Stock = *v.Stock
		}
		if b := strings.TrimSpace(v.Battery); b != "" {
			res.Battery = b
		}
		return res
	}

	return res
}

// AvailableMemoriesForColor returns the distinct memory sizes offered for a
// color. When the variant table has nothing for that color the base memory
// list is returned (and failing that, every memory mentioned by any variant)
// so a selector is never left without options.
func (p *Product) AvailableMemoriesForColor(color string) []string {
	return p.availableDimension(color, func(v *Variant) (string, string) {
		return v.Color, v.Memory
	}, p.Memories)
}

// AvailableColorsForMemory is the mirror of AvailableMemoriesForColor.
func (p *Product) AvailableColorsForMemory(memory string) []string {
	return p.availableDimension(memory, func(v *Variant) (string, string) {
		return v.Memory, v.Color
	}, p.Colors)
}

func (p *Product) availableDimension(fixed string, dims func(*Variant) (key, value string), base []string) []string {
	fixed = strings.TrimSpace(fixed)

	var matched []string
	var all []string
	for i := range p.Variants {
		key, value := dims(&p.Variants[i])
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		all = appendDistinct(all, value)
		if strings.TrimSpace(key) == fixed {
			matched = appendDistinct(matched, value)
		}
	}

	if len(matched) > 0 {
		return matched
	}
	if len(base) > 0 {
		out := make([]string, 0, len(base))
		for _, v := range base {
			if v = strings.TrimSpace(v); v != "" {
				out = appendDistinct(out, v)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return all
}

func appendDistinct(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
