package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// mockCartRepo is an in-memory CartRepository with the same semantics as the
// SQL implementation: first-by-id session lookup, merge-on-add, scoped items.
type mockCartRepo struct {
	mu         sync.Mutex
	nextCartID int64
	nextItemID int64
	carts      []*domain.Cart
	items      []*domain.CartItem
	err        error
}

func (m *mockCartRepo) GetBySessionKey(_ context.Context, sessionKey string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.carts {
		if c.SessionKey == sessionKey {
			return c, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepo) Create(_ context.Context, sessionKey string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextCartID++
	c := &domain.Cart{ID: m.nextCartID, SessionKey: sessionKey}
	m.carts = append(m.carts, c)
	return c, nil
}

func (m *mockCartRepo) ListItems(_ context.Context, cartID int64) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	items := make([]*domain.CartItem, 0)
	for _, it := range m.items {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	return items, nil
}

func (m *mockCartRepo) AddOrIncrementItem(_ context.Context, cartID, productID, quantity int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += quantity
			return it.ID, nil
		}
	}
	m.nextItemID++
	m.items = append(m.items, &domain.CartItem{
		ID:        m.nextItemID,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return m.nextItemID, nil
}

func (m *mockCartRepo) SetItemQuantity(_ context.Context, cartID, itemID, quantity int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, it := range m.items {
		if it.ID == itemID && it.CartID == cartID {
			it.Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepo) DeleteItem(_ context.Context, cartID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, it := range m.items {
		if it.ID == itemID && it.CartID == cartID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepo) DeleteCart(_ context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	kept := m.items[:0]
	for _, it := range m.items {
		if it.CartID != cartID {
			kept = append(kept, it)
		}
	}
	m.items = kept
	for i, c := range m.carts {
		if c.ID == cartID {
			m.carts = append(m.carts[:i], m.carts[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartNotFound
}

type mockCatalog struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) setPrice(id int64, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].Price = price
}

func (m *mockCatalog) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{products: map[int64]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func TestGetOrCreate_CreatesOnFirstAccess(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	view, err := sut.GetOrCreate(context.Background(), "fresh-session")
	require.NoError(t, err)
	assert.Equal(t, "fresh-session", view.SessionKey)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalItems)
	assert.Zero(t, view.TotalPrice)
	assert.Len(t, repo.carts, 1)
}

func TestGetOrCreate_ReusesExistingCart(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	first, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	second, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.carts, 1)
}

func TestGetOrCreate_PreservesOpaqueKeys(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	for _, key := range []string{"", "session-测试-🛒"} {
		view, err := sut.GetOrCreate(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, key, view.SessionKey)
	}
}

func TestAddItem_UnknownProductPersistsNothing(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	_, err := sut.AddItem(context.Background(), "s", 42, 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Empty(t, repo.carts, "product check must run before any cart write")
	assert.Empty(t, repo.items)
}

func TestAddItem_MergesQuantityForSameProduct(t *testing.T) {
	repo := &mockCartRepo{}
	catalog := newMockCatalog(&domain.Product{ID: 1, Name: "Mouse", Price: 29.99})
	sut := NewCartService(repo, catalog)

	firstID, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)
	secondID, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(4), view.Items[0].Quantity)
}

func TestAddItem_DistinctProductsGetDistinctLines(t *testing.T) {
	repo := &mockCartRepo{}
	catalog := newMockCatalog(
		&domain.Product{ID: 1, Price: 10},
		&domain.Product{ID: 2, Price: 20},
	)
	sut := NewCartService(repo, catalog)

	_, err := sut.AddItem(context.Background(), "s", 1, 1)
	require.NoError(t, err)
	_, err = sut.AddItem(context.Background(), "s", 2, 1)
	require.NoError(t, err)

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestSetItemQuantity_NoCartIsNotFound(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	err := sut.SetItemQuantity(context.Background(), "unseen", 1, 5)
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
	assert.Empty(t, repo.carts, "mutations must not implicitly create carts")
}

func TestSetItemQuantity_Overwrites(t *testing.T) {
	repo := &mockCartRepo{}
	catalog := newMockCatalog(&domain.Product{ID: 1, Price: 10})
	sut := NewCartService(repo, catalog)

	itemID, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)

	require.NoError(t, sut.SetItemQuantity(context.Background(), "s", itemID, 5))

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(5), view.Items[0].Quantity)
}

func TestSetItemQuantity_NonPositiveDeletes(t *testing.T) {
	for _, quantity := range []int64{0, -3} {
		repo := &mockCartRepo{}
		catalog := newMockCatalog(&domain.Product{ID: 1, Price: 10})
		sut := NewCartService(repo, catalog)

		itemID, err := sut.AddItem(context.Background(), "s", 1, 2)
		require.NoError(t, err)

		require.NoError(t, sut.SetItemQuantity(context.Background(), "s", itemID, quantity))

		view, err := sut.GetOrCreate(context.Background(), "s")
		require.NoError(t, err)
		assert.Empty(t, view.Items)
	}
}

func TestSetItemQuantity_UnknownItemIsNotFound(t *testing.T) {
	repo := &mockCartRepo{}
	sut := NewCartService(repo, newMockCatalog())

	_, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)

	err = sut.SetItemQuantity(context.Background(), "s", 99999, 5)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	repo := &mockCartRepo{}
	catalog := newMockCatalog(&domain.Product{ID: 1, Price: 10})
	sut := NewCartService(repo, catalog)

	itemID, err := sut.AddItem(context.Background(), "s", 1, 3)
	require.NoError(t, err)

	require.NoError(t, sut.RemoveItem(context.Background(), "s", itemID))

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	err = sut.RemoveItem(context.Background(), "s", itemID)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestTotals_ComputedFromQuantitiesAndPrices(t *testing.T) {
	repo := &mockCartRepo{}
	catalog := newMockCatalog(
		&domain.Product{ID: 1, Price: 999.99},
		&domain.Product{ID: 2, Price: 29.99},
	)
	sut := NewCartService(repo, catalog)

	_, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)
	_, err = sut.AddItem(context.Background(), "s", 2, 3)
	require.NoError(t, err)

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.TotalItems)
	assert.InDelta(t, 999.99*2+29.99*3, view.TotalPrice, 0.01)
}

func TestTotals_FollowCurrentPrice(t *testing.T) {
	// Carts do not snapshot prices: a catalog price change shows up in the
	// totals on the next read without any cart mutation.
	repo := &mockCartRepo{}
	catalog := newMockCatalog(&domain.Product{ID: 1, Price: 10})
	sut := NewCartService(repo, catalog)

	_, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	assert.InDelta(t, 20, view.TotalPrice, 0.01)

	catalog.setPrice(1, 15)

	view, err = sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	assert.InDelta(t, 30, view.TotalPrice, 0.01)
}

func TestTotals_DeletedProductKeepsLine(t *testing.T) {
	// The catalog has no referential guard: deleting a product leaves the
	// cart line behind with a nil product and no price contribution.
	repo := &mockCartRepo{}
	catalog := newMockCatalog(&domain.Product{ID: 1, Price: 10})
	sut := NewCartService(repo, catalog)

	_, err := sut.AddItem(context.Background(), "s", 1, 2)
	require.NoError(t, err)

	catalog.remove(1)

	view, err := sut.GetOrCreate(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
	assert.Equal(t, int64(2), view.TotalItems)
	assert.Zero(t, view.TotalPrice)
}
