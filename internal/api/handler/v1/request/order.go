package request

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

type PlaceOrderRequest struct {
	CustomerName  string `json:"customer_name" form:"customer_name"`
	TableNumber   string `json:"table_number" form:"table_number"`
	PaymentMethod string `json:"payment_method" form:"payment_method"`
}

func (req *PlaceOrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CustomerName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.TableNumber, validation.Required, validation.Length(1, 20)),
		validation.Field(&req.PaymentMethod, validation.Required,
			validation.In(string(domain.PaymentCash), string(domain.PaymentQRIS))),
	)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" form:"status"`
}

func (req *UpdateOrderStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.By(func(value interface{}) error {
			if !domain.OrderStatus(req.Status).Valid() {
				return fmt.Errorf("unknown order status %q", req.Status)
			}
			return nil
		})),
	)
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" form:"payment_status"`
}

func (req *UpdatePaymentStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PaymentStatus, validation.Required, validation.By(func(value interface{}) error {
			if !domain.PaymentStatus(req.PaymentStatus).Valid() {
				return fmt.Errorf("unknown payment status %q", req.PaymentStatus)
			}
			return nil
		})),
	)
}

type ExportRequest struct {
	Month int `form:"month"`
	Year  int `form:"year"`
}

func (req *ExportRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Month, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&req.Year, validation.Required, validation.Min(2000), validation.Max(9999)),
	)
}
