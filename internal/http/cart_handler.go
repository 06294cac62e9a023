package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
)

// CartEngine is the cart surface the handler needs from the service layer.
type CartEngine interface {
	GetOrCreate(ctx context.Context, sessionKey string) (*domain.CartView, error)
	AddItem(ctx context.Context, sessionKey string, productID, quantity int64) (int64, error)
	SetItemQuantity(ctx context.Context, sessionKey string, itemID, quantity int64) error
	RemoveItem(ctx context.Context, sessionKey string, itemID int64) error
}

type CartHandler struct {
	engine   CartEngine
	validate *validator.Validate
}

func NewCartHandler(engine CartEngine) *CartHandler {
	return &CartHandler{
		engine:   engine,
		validate: validator.New(),
	}
}

type AddItemRequestDTO struct {
	ProductID *int64 `json:"product_id" validate:"required"`
	Quantity  *int64 `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int64 `json:"quantity" validate:"required"`
}

type AddItemResponse struct {
	Message    string `json:"message"`
	CartItemID int64  `json:"cart_item_id"`
}

// GetCart returns the session's cart, creating it on first access.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.engine.GetOrCreate(r.Context(), sessionKey(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	itemID, err := h.engine.AddItem(r.Context(), sessionKey(r), *req.ProductID, quantity)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AddItemResponse{
		Message:    "Item added to cart",
		CartItemID: itemID,
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := cartItemID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.engine.SetItemQuantity(r.Context(), sessionKey(r), itemID, *req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Cart item updated"})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := cartItemID(w, r)
	if !ok {
		return
	}

	if err := h.engine.RemoveItem(r.Context(), sessionKey(r), itemID); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}

// sessionKey returns the session path segment byte-exact. chi hands back the
// still-escaped segment, so unescape to round-trip unicode keys.
func sessionKey(r *http.Request) string {
	raw := chi.URLParam(r, "sessionID")
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

func cartItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid cart item id")
		return 0, false
	}
	return id, true
}
