package repository

import (
	"context"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
)

var (
	ErrProductNotFound   = dao.ErrProductNotFound
	ErrProductNameExists = dao.ErrProductNameExists
	ErrProductInUse      = dao.ErrProductInUse
)

type ProductDAO interface {
	Insert(ctx context.Context, product dao.Product) (dao.Product, error)
	Update(ctx context.Context, product dao.Product) (dao.Product, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (dao.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.Product, error)
	FindMenu(ctx context.Context) ([]dao.Product, error)
	FindAvailable(ctx context.Context) ([]dao.Product, error)
	FindAll(ctx context.Context) ([]dao.Product, error)
	Count(ctx context.Context) (int64, error)
}

type ProductRepository struct {
	dao ProductDAO
}

func NewProductRepository(dao ProductDAO) *ProductRepository {
	return &ProductRepository{
		dao: dao,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(product))
	if err != nil {
		return domain.Product{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	updated, err := r.dao.Update(ctx, r.domainToDAO(product))
	if err != nil {
		return domain.Product{}, err
	}

	return r.daoToDomain(updated), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.dao.Delete(ctx, id)
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (domain.Product, error) {
	product, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	return r.daoToDomain(product), nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uint) ([]domain.Product, error) {
	products, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(products), nil
}

func (r *ProductRepository) FindMenu(ctx context.Context) ([]domain.Product, error) {
	products, err := r.dao.FindMenu(ctx)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(products), nil
}

func (r *ProductRepository) FindAvailable(ctx context.Context) ([]domain.Product, error) {
	products, err := r.dao.FindAvailable(ctx)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(products), nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	products, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(products), nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	return r.dao.Count(ctx)
}

func (r *ProductRepository) domainToDAO(p domain.Product) dao.Product {
	return dao.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *ProductRepository) daoToDomain(p dao.Product) domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *ProductRepository) daosToDomain(products []dao.Product) []domain.Product {
	result := make([]domain.Product, len(products))
	for i, p := range products {
		result[i] = r.daoToDomain(p)
	}

	return result
}
