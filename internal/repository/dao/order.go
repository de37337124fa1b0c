package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStatusConflict    = errors.New("order was modified concurrently")
)

type Order struct {
	ID                 string          `gorm:"primaryKey;type:varchar(36)"`
	CustomerName       string          `gorm:"not null"`
	TableNumber        string          `gorm:"not null"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMethod      string          `gorm:"not null"`
	Status             string          `gorm:"index;not null"`
	PaymentStatus      string          `gorm:"index;not null"`
	GatewayToken       string
	GatewayOrderID     string `gorm:"index"`
	GatewayRedirectURL string
	Items              []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time   `gorm:"index"`
	UpdatedAt          time.Time
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	return nil
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   string          `gorm:"type:varchar(36);index;not null"`
	ProductID uint            `gorm:"index;not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Notes     string
	CreatedAt time.Time
}

// PopularProduct is a row of the best sellers aggregation.
type PopularProduct struct {
	ProductID uint
	Name      string
	Quantity  int64
}

type OrderDAO struct {
	db *gorm.DB
}

func NewOrderDAO(db *gorm.DB) *OrderDAO {
	return &OrderDAO{
		db: db,
	}
}

// Place inserts the order with its items and takes the ordered quantities
// out of stock in one transaction. The decrement is conditional on enough
// stock being left, so concurrent orders can never push stock below zero.
func (d *OrderDAO) Place(ctx context.Context, order Order, quantities map[uint]int) (Order, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order -> %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return fmt.Errorf("create order items -> %w", err)
			}
		}

		for productID, qty := range quantities {
			result := tx.Model(&Product{}).
				Where("id = ? AND stock >= ?", productID, qty).
				Update("stock", gorm.Expr("stock - ?", qty))
			if result.Error != nil {
				return fmt.Errorf("decrement stock -> %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
			}
		}

		order.Items = items

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func (d *OrderDAO) FindByID(ctx context.Context, id string) (Order, error) {
	var order Order

	result := d.withItems(ctx).First(&order, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Order{}, ErrOrderNotFound
		}

		return Order{}, result.Error
	}

	return order, nil
}

func (d *OrderDAO) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (Order, error) {
	var order Order

	result := d.withItems(ctx).First(&order, "gateway_order_id = ?", gatewayOrderID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Order{}, ErrOrderNotFound
		}

		return Order{}, result.Error
	}

	return order, nil
}

// FindAll returns orders newest first. A limit <= 0 returns every order.
func (d *OrderDAO) FindAll(ctx context.Context, limit int) ([]Order, error) {
	var orders []Order

	q := d.withItems(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// FindCreatedBetween returns orders created in [from, to), oldest first.
func (d *OrderDAO) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]Order, error) {
	var orders []Order

	result := d.withItems(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&orders)
	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// UpdateStatus moves an order from one status to another. When restock is
// set the ordered quantities go back to stock in the same transaction.
func (d *OrderDAO) UpdateStatus(ctx context.Context, id, from, to string, restock bool) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}

		if !restock {
			return nil
		}

		var items []OrderItem
		if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			err := tx.Model(&Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
			if err != nil {
				return fmt.Errorf("restock product %d -> %w", item.ProductID, err)
			}
		}

		return nil
	})
}

// UpdatePaymentStatus is a compare-and-set on payment_status.
func (d *OrderDAO) UpdatePaymentStatus(ctx context.Context, id, from, to string) error {
	result := d.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (d *OrderDAO) UpdateGatewayTransaction(ctx context.Context, id, token, gatewayOrderID, redirectURL string) error {
	result := d.db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"gateway_token":        token,
			"gateway_order_id":     gatewayOrderID,
			"gateway_redirect_url": redirectURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SumPaidBetween totals paid orders created in [from, to).
func (d *OrderDAO) SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal

	row := d.db.WithContext(ctx).Model(&Order{}).
		Select("SUM(total_amount)").
		Where("payment_status = ? AND created_at >= ? AND created_at < ?", "paid", from, to).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}

	return total.Decimal, nil
}

// FindPopularProducts ranks products by units ordered, ignoring cancelled orders.
func (d *OrderDAO) FindPopularProducts(ctx context.Context, limit int) ([]PopularProduct, error) {
	var rows []PopularProduct

	result := d.db.WithContext(ctx).Table("order_items").
		Select("order_items.product_id AS product_id, products.name AS name, SUM(order_items.quantity) AS quantity").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", "cancelled").
		Group("order_items.product_id, products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

func (d *OrderDAO) withItems(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Preload("Items.Product")
}
