package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hybrasil/storefront/internal/api/middleware"
	"github.com/hybrasil/storefront/internal/domain/cart"
	"github.com/hybrasil/storefront/internal/domain/catalog"
	"github.com/hybrasil/storefront/internal/domain/order"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
)

// Handlers serves the storefront: catalog and config reads, the session's
// cart, checkout and the viewer's own orders.
type Handlers struct {
	catalog *catalog.Service
	orders  *order.Service
	config  *siteconfig.Service
	carts   *cart.Manager
}

func NewHandlers(cat *catalog.Service, orders *order.Service, cfg *siteconfig.Service, carts *cart.Manager) *Handlers {
	return &Handlers{
		catalog: cat,
		orders:  orders,
		config:  cfg,
		carts:   carts,
	}
}

// Catalog

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Products())
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Posts())
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/posts/")
	post, ok := h.catalog.GetPost(id)
	if !ok {
		respondJSONError(w, "post not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// Config is public: the auth screen needs branding before any login.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.config.Get())
}

// Cart

// CartResponse pairs the lines with the recomputed total.
type CartResponse struct {
	Items []cart.Item `json:"items"`
	Total float64     `json:"total"`
}

func (h *Handlers) cartFor(r *http.Request) *cart.Cart {
	sess, _ := middleware.GetSession(r.Context())
	return h.carts.Get(sess.ID)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	respondJSON(w, http.StatusOK, CartResponse{Items: c.Items(), Total: c.Total()})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, ok := h.catalog.GetProduct(req.ProductID)
	if !ok {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}

	c := h.cartFor(r)
	c.Add(p)
	respondJSON(w, http.StatusOK, CartResponse{Items: c.Items(), Total: c.Total()})
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c := h.cartFor(r)
	c.UpdateQuantity(id, req.Delta)
	respondJSON(w, http.StatusOK, CartResponse{Items: c.Items(), Total: c.Total()})
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/cart/items/")
	c := h.cartFor(r)
	c.Remove(id)
	respondJSON(w, http.StatusOK, CartResponse{Items: c.Items(), Total: c.Total()})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	c.Clear()
	respondJSON(w, http.StatusOK, CartResponse{Items: c.Items(), Total: c.Total()})
}

// Checkout

// Checkout turns the cart plus a receipt image into a pending order. The
// payment QR is shown client-side from config; no payment status is ever
// checked here.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	var req struct {
		ReceiptImage string `json:"receipt_image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c := h.carts.Get(sess.ID)
	o, err := h.orders.Checkout(r.Context(), sess, c, req.ReceiptImage)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) || errors.Is(err, order.ErrMissingReceipt) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// Orders

// GetOrders lists the viewer's own orders, matched by session email.
func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	orders := h.orders.ListByEmail(sess.Email)
	if orders == nil {
		orders = []order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}
