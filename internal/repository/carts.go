package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the cart store operations.
// Consumers define this interface, not the SQL implementation.
type CartRepository interface {
	GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error)
	Create(ctx context.Context, sessionKey string) (*domain.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]*domain.CartItem, error)
	AddOrIncrementItem(ctx context.Context, cartID, productID, quantity int64) (int64, error)
	SetItemQuantity(ctx context.Context, cartID, itemID, quantity int64) error
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
}

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// GetBySessionKey resolves a session key to a cart. Session keys are not
// unique; when duplicates exist the oldest cart wins, deterministically.
func (r *CartRepo) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	query := `
		SELECT id, session_key, created_at, updated_at
		FROM carts
		WHERE session_key = $1
		ORDER BY id
		LIMIT 1
	`

	c := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, sessionKey).Scan(&c.ID, &c.SessionKey, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by session key: %w", err)
	}

	return c, nil
}

func (r *CartRepo) Create(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (session_key, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	now := time.Now().UTC()
	c := &domain.Cart{
		SessionKey: sessionKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.db.QueryRowContext(ctx, query, c.SessionKey, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	return c, nil
}

func (r *CartRepo) ListItems(ctx context.Context, cartID int64) ([]*domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.CartItem, 0)
	for rows.Next() {
		item := &domain.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// AddOrIncrementItem merges an add into an existing (cart, product) line or
// inserts a new one. The increment is a relative UPDATE (quantity = quantity
// + n), so concurrent adds against an existing line converge to the summed
// quantity. Two concurrent first adds for the same pair can still both pass
// the existence check and insert duplicate lines; the store tolerates that,
// like duplicate carts, and later merges target the lowest line id. Returns
// the affected item id.
func (r *CartRepo) AddOrIncrementItem(ctx context.Context, cartID, productID, quantity int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var itemID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM cart_items WHERE cart_id = $1 AND product_id = $2 ORDER BY id LIMIT 1`,
		cartID, productID,
	).Scan(&itemID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			cartID, productID, quantity, now, now,
		).Scan(&itemID)
		if err != nil {
			return 0, fmt.Errorf("insert cart item: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("query cart item: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = quantity + $1, updated_at = $2 WHERE id = $3`,
			quantity, now, itemID,
		)
		if err != nil {
			return 0, fmt.Errorf("increment cart item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, now, cartID); err != nil {
		return 0, fmt.Errorf("touch cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return itemID, nil
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID, itemID, quantity int64) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3 AND cart_id = $4`,
		quantity, now, itemID, cartID,
	)
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, now, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	return nil
}

func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`,
		itemID, cartID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	return nil
}

// DeleteCart removes a cart and all its items. The cascade is done here
// rather than by the schema so the ownership rule lives in one place.
func (r *CartRepo) DeleteCart(ctx context.Context, cartID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCartNotFound
	}

	return tx.Commit()
}
