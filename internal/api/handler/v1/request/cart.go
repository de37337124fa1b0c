package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type AddToCartRequest struct {
	ProductID uint   `json:"product_id" form:"product_id"`
	Quantity  int    `json:"quantity" form:"quantity"`
	Notes     string `json:"notes" form:"notes"`
}

func (req *AddToCartRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ProductID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1), validation.Max(99)),
		validation.Field(&req.Notes, validation.Length(0, 200)),
	)
}

// UpdateCartRequest addresses a cart line by its position. A quantity of
// zero or less removes the line.
type UpdateCartRequest struct {
	Index    int `json:"index" form:"index"`
	Quantity int `json:"quantity" form:"quantity"`
}

func (req *UpdateCartRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Max(99)),
	)
}

type RemoveFromCartRequest struct {
	Index int `json:"index" form:"index"`
}
