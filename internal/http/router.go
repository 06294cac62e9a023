package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the middleware stack and all routes.
func NewRouter(products *ProductHandler, carts *CartHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(CORSMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, MessageResponse{Message: "Welcome to the Storefront API"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", products.Create)
		r.Get("/", products.List)
		r.Get("/{productID}", products.Get)
		r.Put("/{productID}", products.Update)
		r.Delete("/{productID}", products.Delete)
	})

	r.Route("/cart/{sessionID}", func(r chi.Router) {
		r.Get("/", carts.GetCart)
		r.Post("/items", carts.AddItem)
		r.Put("/items/{itemID}", carts.UpdateQuantity)
		r.Delete("/items/{itemID}", carts.RemoveItem)
	})

	return r
}
