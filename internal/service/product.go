package service

import (
	"context"
	"fmt"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/pkg/sanitize"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
)

var (
	ErrProductNotFound   = repository.ErrProductNotFound
	ErrProductNameExists = repository.ErrProductNameExists
	ErrProductInUse      = repository.ErrProductInUse
)

type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]domain.Product, error)
	FindMenu(ctx context.Context) ([]domain.Product, error)
	FindAvailable(ctx context.Context) ([]domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

type ProductService struct {
	repo ProductRepository
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListMenu returns the products customers can order, grouped by category.
func (s *ProductService) ListMenu(ctx context.Context) ([]domain.MenuCategory, error) {
	products, err := s.repo.FindMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindMenu -> %w", err)
	}

	return domain.GroupByCategory(products), nil
}

func (s *ProductService) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAvailable -> %w", err)
	}

	return products, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return product, nil
}

// Save creates the product when it has no ID yet and updates it otherwise.
func (s *ProductService) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.Name = sanitize.Text(product.Name)
	product.Description = sanitize.Text(product.Description)
	product.Category = sanitize.Text(product.Category)

	if product.ID == 0 {
		created, err := s.repo.Create(ctx, product)
		if err != nil {
			return domain.Product{}, fmt.Errorf("s.repo.Create -> %w", err)
		}

		return created, nil
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
