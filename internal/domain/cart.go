package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
	Notes     string          `json:"notes"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items []CartItem `json:"items"`
}

// Add merges item into a line with the same product and notes.
func (c *Cart) Add(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID && c.Items[i].Notes == item.Notes {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}

	c.Items = append(c.Items, item)
}

// Update sets the quantity of a line, dropping it when quantity <= 0.
// Out of range indexes are ignored.
func (c *Cart) Update(index, quantity int) {
	if index < 0 || index >= len(c.Items) {
		return
	}
	if quantity <= 0 {
		c.Remove(index)
		return
	}

	c.Items[index].Quantity = quantity
}

func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.Items) {
		return
	}

	c.Items = append(c.Items[:index], c.Items[index+1:]...)
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count is the number of lines, not units.
func (c Cart) Count() int {
	return len(c.Items)
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}

	return total
}

// Quantities sums units per product across lines with different notes.
func (c Cart) Quantities() map[uint]int {
	q := make(map[uint]int, len(c.Items))
	for _, item := range c.Items {
		q[item.ProductID] += item.Quantity
	}

	return q
}
