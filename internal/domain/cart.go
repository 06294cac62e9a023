package domain

import "time"

// Cart is a guest shopping session. The session key is caller-supplied and
// deliberately not unique: two concurrent first requests for the same key may
// each create a cart, and reads resolve to the oldest one.
type Cart struct {
	ID         int64     `json:"id"`
	SessionKey string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartItem holds one product line of a cart. At most one line exists per
// (cart, product) pair; repeated adds merge into the existing line.
type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cart_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// CartItemView is a cart line with its product resolved at read time.
// Product is nil when the referenced product has been deleted from the
// catalog; the line survives because the store keeps no referential guard.
type CartItemView struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	Quantity  int64    `json:"quantity"`
	Product   *Product `json:"product"`
}

// CartView is the read model returned to callers. Totals are recomputed from
// current quantities and current product prices on every read, never stored.
type CartView struct {
	ID         int64          `json:"id"`
	SessionKey string         `json:"session_id"`
	Items      []CartItemView `json:"items"`
	TotalItems int64          `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
}
