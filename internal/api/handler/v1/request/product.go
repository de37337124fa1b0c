package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

var errPriceNotPositive = errors.New("must be greater than zero")

// ProductForm is posted by the admin product editor. A checked checkbox
// arrives as "on".
type ProductForm struct {
	ID          uint   `form:"id"`
	Name        string `form:"name"`
	Description string `form:"description"`
	Price       string `form:"price"`
	Category    string `form:"category"`
	Stock       int    `form:"stock"`
	ImageURL    string `form:"image_url"`
	IsAvailable string `form:"is_available"`
}

func (req *ProductForm) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Category, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Price, validation.Required, validation.By(func(value interface{}) error {
			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				return err
			}
			if !price.IsPositive() {
				return errPriceNotPositive
			}
			return nil
		})),
		validation.Field(&req.Stock, validation.Min(0)),
		validation.Field(&req.ImageURL, is.URL),
	)
}

// Product assumes Validate has passed.
func (req *ProductForm) Product() domain.Product {
	price, _ := decimal.NewFromString(req.Price)

	return domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       price.Round(2),
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable == "on" || req.IsAvailable == "true",
	}
}
