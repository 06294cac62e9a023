package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Catalog is the product surface the handler needs from the service layer.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, name string, price float64, description *string, stock int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, changes repository.ProductChangeSet) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductHandler struct {
	catalog  Catalog
	validate *validator.Validate
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		validate: validator.New(),
	}
}

// Pointer fields distinguish "absent" from a legitimate zero value, so a
// free product (price 0) still passes required-field validation.
type ProductCreateDTO struct {
	Name        *string  `json:"name" validate:"required"`
	Price       *float64 `json:"price" validate:"required"`
	Description *string  `json:"description"`
	Stock       *int64   `json:"stock" validate:"required"`
}

type ProductUpdateDTO struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int64   `json:"stock"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductCreateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), *req.Name, *req.Price, req.Description, *req.Stock)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req ProductUpdateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, repository.ProductChangeSet{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Stock:       req.Stock,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid product id")
		return 0, false
	}
	return id, true
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
// Both malformed bodies and missing required fields are validation failures
// and answer 422.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusUnprocessableEntity, "missing required field: "+verrs[0].Field())
			return false
		}
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}

	return true
}
