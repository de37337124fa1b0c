package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/pkg/sanitize"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductUnavailable = errors.New("product is not available")
)

type CartStore interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type ProductFinder interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

type CartService struct {
	store    CartStore
	products ProductFinder
}

func NewCartService(store CartStore, products ProductFinder) *CartService {
	return &CartService{
		store:    store,
		products: products,
	}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("s.store.Get -> %w", err)
	}

	return cart, nil
}

// Add puts quantity units of a product in the cart. Name, price and image are
// copied from the catalog; the client only chooses the product and notes.
func (s *CartService) Add(ctx context.Context, sessionID string, productID uint, quantity int, notes string) (domain.Cart, error) {
	if quantity <= 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("s.products.FindByID -> %w", err)
	}
	if !product.IsAvailable {
		return domain.Cart{}, fmt.Errorf("%s: %w", product.Name, ErrProductUnavailable)
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	if !product.CanFulfil(cart.Quantities()[product.ID] + quantity) {
		return domain.Cart{}, fmt.Errorf("%s: %w", product.Name, ErrInsufficientStock)
	}

	cart.Add(domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  quantity,
		Notes:     sanitize.Text(notes),
	})

	if err = s.store.Save(ctx, sessionID, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("s.store.Save -> %w", err)
	}

	return cart, nil
}

func (s *CartService) Update(ctx context.Context, sessionID string, index, quantity int) (domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.Update(index, quantity)
	})
}

func (s *CartService) Remove(ctx context.Context, sessionID string, index int) (domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) {
		cart.Remove(index)
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("s.store.Delete -> %w", err)
	}

	return nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart)) (domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	fn(&cart)

	if err = s.store.Save(ctx, sessionID, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("s.store.Save -> %w", err)
	}

	return cart, nil
}
