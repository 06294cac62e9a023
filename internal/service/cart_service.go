package service

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ProductResolver is what the cart engine needs from the catalog: current
// product state at read time. Totals are priced against whatever the catalog
// holds now, never against a snapshot taken at add time.
type ProductResolver interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type CartService struct {
	carts   repository.CartRepository
	catalog ProductResolver
}

func NewCartService(carts repository.CartRepository, catalog ProductResolver) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
	}
}

// GetOrCreate resolves the cart for a session key, creating one on first
// access, and returns it with resolved items and recomputed totals.
func (s *CartService) GetOrCreate(ctx context.Context, sessionKey string) (*domain.CartView, error) {
	cart, err := s.getOrCreateCart(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	return s.buildView(ctx, cart)
}

// AddItem adds quantity of a product to the session's cart, merging into an
// existing line for the same product. Returns the affected cart item id.
// Fails with ErrProductNotFound before any cart write when the product does
// not exist.
func (s *CartService) AddItem(ctx context.Context, sessionKey string, productID, quantity int64) (int64, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return 0, err
	}

	cart, err := s.getOrCreateCart(ctx, sessionKey)
	if err != nil {
		return 0, err
	}

	return s.carts.AddOrIncrementItem(ctx, cart.ID, productID, quantity)
}

// SetItemQuantity overwrites an item's quantity. A quantity of zero or less
// deletes the item instead of leaving a degenerate line behind.
func (s *CartService) SetItemQuantity(ctx context.Context, sessionKey string, itemID, quantity int64) error {
	cart, err := s.carts.GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return s.carts.DeleteItem(ctx, cart.ID, itemID)
	}

	return s.carts.SetItemQuantity(ctx, cart.ID, itemID, quantity)
}

// RemoveItem deletes an item from the session's cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionKey string, itemID int64) error {
	cart, err := s.carts.GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return err
	}

	return s.carts.DeleteItem(ctx, cart.ID, itemID)
}

// getOrCreateCart is a check-then-act sequence: two first requests for the
// same unseen key racing here may each create a cart. The store tolerates
// the duplicate and reads deterministically pick the oldest cart.
func (s *CartService) getOrCreateCart(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	cart, err := s.carts.GetBySessionKey(ctx, sessionKey)
	if errors.Is(err, repository.ErrCartNotFound) {
		return s.carts.Create(ctx, sessionKey)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) buildView(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{
		ID:         cart.ID,
		SessionKey: cart.SessionKey,
		Items:      make([]domain.CartItemView, 0, len(items)),
	}

	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}

		view.Items = append(view.Items, domain.CartItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   product,
		})

		view.TotalItems += item.Quantity
		if product != nil {
			view.TotalPrice += float64(item.Quantity) * product.Price
		}
	}

	return view, nil
}
