package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductNameExists = errors.New("product name already exists")
	ErrProductInUse      = errors.New("product is referenced by orders")
)

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"uniqueIndex;not null"`
	Description string
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Category    string          `gorm:"index;not null"`
	Stock       int             `gorm:"not null;check:chk_products_stock,stock >= 0"`
	ImageURL    string
	IsAvailable bool `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductDAO struct {
	db *gorm.DB
}

func NewProductDAO(db *gorm.DB) *ProductDAO {
	return &ProductDAO{
		db: db,
	}
}

func (d *ProductDAO) Insert(ctx context.Context, product Product) (Product, error) {
	result := d.db.WithContext(ctx).Create(&product)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Product{}, ErrProductNameExists
		}

		return Product{}, result.Error
	}

	return product, nil
}

// Update writes every column, zero values included.
func (d *ProductDAO) Update(ctx context.Context, product Product) (Product, error) {
	result := d.db.WithContext(ctx).Model(&Product{ID: product.ID}).
		Select("name", "description", "price", "category", "stock", "image_url", "is_available", "updated_at").
		Updates(&product)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Product{}, ErrProductNameExists
		}

		return Product{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Product{}, ErrProductNotFound
	}

	return d.FindByID(ctx, product.ID)
}

func (d *ProductDAO) Delete(ctx context.Context, id uint) error {
	var refs int64
	if err := d.db.WithContext(ctx).Model(&OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return ErrProductInUse
	}

	result := d.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (d *ProductDAO) FindByID(ctx context.Context, id uint) (Product, error) {
	var product Product

	result := d.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Product{}, ErrProductNotFound
		}

		return Product{}, result.Error
	}

	return product, nil
}

func (d *ProductDAO) FindByIDs(ctx context.Context, ids []uint) ([]Product, error) {
	var products []Product

	result := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// FindMenu returns what customers can order, grouped-friendly by category.
func (d *ProductDAO) FindMenu(ctx context.Context) ([]Product, error) {
	var products []Product

	result := d.db.WithContext(ctx).
		Where("is_available = ? AND stock > 0", true).
		Order("category").Order("name").
		Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

func (d *ProductDAO) FindAvailable(ctx context.Context) ([]Product, error) {
	var products []Product

	result := d.db.WithContext(ctx).Where("is_available = ?", true).Order("name").Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

func (d *ProductDAO) FindAll(ctx context.Context) ([]Product, error) {
	var products []Product

	result := d.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

func (d *ProductDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Product{}).Count(&n).Error

	return n, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}
