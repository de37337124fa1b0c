package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
)

var (
	ErrOrderNotFound     = dao.ErrOrderNotFound
	ErrInsufficientStock = dao.ErrInsufficientStock
	ErrStatusConflict    = dao.ErrStatusConflict
)

type OrderDAO interface {
	Place(ctx context.Context, order dao.Order, quantities map[uint]int) (dao.Order, error)
	FindByID(ctx context.Context, id string) (dao.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (dao.Order, error)
	FindAll(ctx context.Context, limit int) ([]dao.Order, error)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]dao.Order, error)
	UpdateStatus(ctx context.Context, id, from, to string, restock bool) error
	UpdatePaymentStatus(ctx context.Context, id, from, to string) error
	UpdateGatewayTransaction(ctx context.Context, id, token, gatewayOrderID, redirectURL string) error
	SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	FindPopularProducts(ctx context.Context, limit int) ([]dao.PopularProduct, error)
}

type OrderRepository struct {
	dao OrderDAO
}

func NewOrderRepository(dao OrderDAO) *OrderRepository {
	return &OrderRepository{
		dao: dao,
	}
}

// Place stores the order and decrements stock by the per product totals.
func (r *OrderRepository) Place(ctx context.Context, order domain.Order) (domain.Order, error) {
	quantities := make(map[uint]int, len(order.Items))
	for _, item := range order.Items {
		quantities[item.ProductID] += item.Quantity
	}

	placed, err := r.dao.Place(ctx, r.domainToDAO(order), quantities)
	if err != nil {
		return domain.Order{}, err
	}

	result := r.daoToDomain(placed)
	// Product rows are not reloaded on insert, keep the names we already know.
	for i := range result.Items {
		if i < len(order.Items) {
			result.Items[i].ProductName = order.Items[i].ProductName
			result.Items[i].ImageURL = order.Items[i].ImageURL
		}
	}

	return result, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	order, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	return r.daoToDomain(order), nil
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	order, err := r.dao.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return domain.Order{}, err
	}

	return r.daoToDomain(order), nil
}

func (r *OrderRepository) FindAll(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, err := r.dao.FindAll(ctx, limit)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(orders), nil
}

func (r *OrderRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	orders, err := r.dao.FindCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(orders), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	return r.dao.UpdateStatus(ctx, id, string(from), string(to), to == domain.OrderCancelled)
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	return r.dao.UpdatePaymentStatus(ctx, id, string(from), string(to))
}

func (r *OrderRepository) UpdateGatewayTransaction(ctx context.Context, id, token, gatewayOrderID, redirectURL string) error {
	return r.dao.UpdateGatewayTransaction(ctx, id, token, gatewayOrderID, redirectURL)
}

func (r *OrderRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.dao.SumPaidBetween(ctx, from, to)
}

func (r *OrderRepository) FindPopularProducts(ctx context.Context, limit int) ([]domain.PopularProduct, error) {
	rows, err := r.dao.FindPopularProducts(ctx, limit)
	if err != nil {
		return nil, err
	}

	popular := make([]domain.PopularProduct, len(rows))
	for i, row := range rows {
		popular[i] = domain.PopularProduct{
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
		}
	}

	return popular, nil
}

func (r *OrderRepository) domainToDAO(o domain.Order) dao.Order {
	items := make([]dao.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = dao.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Notes:     item.Notes,
		}
	}

	return dao.Order{
		ID:                 o.ID,
		CustomerName:       o.CustomerName,
		TableNumber:        o.TableNumber,
		TotalAmount:        o.TotalAmount,
		PaymentMethod:      string(o.PaymentMethod),
		Status:             string(o.Status),
		PaymentStatus:      string(o.PaymentStatus),
		GatewayToken:       o.GatewayToken,
		GatewayOrderID:     o.GatewayOrderID,
		GatewayRedirectURL: o.GatewayRedirectURL,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (r *OrderRepository) daoToDomain(o dao.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = domain.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			ImageURL:    item.Product.ImageURL,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Notes:       item.Notes,
		}
	}

	return domain.Order{
		ID:                 o.ID,
		CustomerName:       o.CustomerName,
		TableNumber:        o.TableNumber,
		TotalAmount:        o.TotalAmount,
		PaymentMethod:      domain.PaymentMethod(o.PaymentMethod),
		Status:             domain.OrderStatus(o.Status),
		PaymentStatus:      domain.PaymentStatus(o.PaymentStatus),
		GatewayToken:       o.GatewayToken,
		GatewayOrderID:     o.GatewayOrderID,
		GatewayRedirectURL: o.GatewayRedirectURL,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (r *OrderRepository) daosToDomain(orders []dao.Order) []domain.Order {
	result := make([]domain.Order, len(orders))
	for i, o := range orders {
		result[i] = r.daoToDomain(o)
	}

	return result
}
