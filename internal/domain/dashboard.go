package domain

import "github.com/shopspring/decimal"

type PopularProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type Dashboard struct {
	TodaySales      decimal.Decimal  `json:"today_sales"`
	MonthSales      decimal.Decimal  `json:"month_sales"`
	PopularProducts []PopularProduct `json:"popular_products"`
	RecentOrders    []Order          `json:"recent_orders"`
}
