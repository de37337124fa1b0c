package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CanFulfil reports whether quantity units can be sold right now.
func (p Product) CanFulfil(quantity int) bool {
	return p.IsAvailable && quantity > 0 && p.Stock >= quantity
}

type MenuCategory struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// GroupByCategory keeps the order in which categories first appear.
func GroupByCategory(products []Product) []MenuCategory {
	var menu []MenuCategory
	index := make(map[string]int)

	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(menu)
			index[p.Category] = i
			menu = append(menu, MenuCategory{Name: p.Category})
		}
		menu[i].Products = append(menu[i].Products, p)
	}

	return menu
}
