package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hybrasil/storefront/internal/domain/catalog"
	"github.com/hybrasil/storefront/internal/domain/order"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
)

// AdminHandlers is the back office: catalog CRUD, order management and the
// site configuration. Every route here sits behind the admin gate.
type AdminHandlers struct {
	catalog *catalog.Service
	orders  *order.Service
	config  *siteconfig.Service
}

func NewAdminHandlers(cat *catalog.Service, orders *order.Service, cfg *siteconfig.Service) *AdminHandlers {
	return &AdminHandlers{
		catalog: cat,
		orders:  orders,
		config:  cfg,
	}
}

// Products

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = extractPathParam(r.URL.Path, "/admin/products/")

	if err := h.catalog.UpdateProduct(r.Context(), p); err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeleteProduct removes a product permanently. The interactive confirmation
// lives client-side; there is no undo here.
func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Blog posts

func (h *AdminHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var p catalog.BlogPost
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.catalog.CreatePost(r.Context(), p)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AdminHandlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var p catalog.BlogPost
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = extractPathParam(r.URL.Path, "/admin/posts/")

	if err := h.catalog.UpdatePost(r.Context(), p); err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *AdminHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/posts/")
	if err := h.catalog.DeletePost(r.Context(), id); err != nil {
		respondCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// Orders

func (h *AdminHandlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.orders.ListAll()
	if orders == nil {
		orders = []order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// SetOrderStatus moves an order to any known status, no transition rules.
func (h *AdminHandlers) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := orderIDFromPath(r.URL.Path, "/status")

	var req struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// SetOrderMessage attaches or overwrites the message shown to the buyer.
func (h *AdminHandlers) SetOrderMessage(w http.ResponseWriter, r *http.Request) {
	id := orderIDFromPath(r.URL.Path, "/message")

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.SetAdminMessage(r.Context(), id, req.Message)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// DeliverOrder is the one-click delivered action from the detail view.
func (h *AdminHandlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id := orderIDFromPath(r.URL.Path, "/deliver")

	o, err := h.orders.MarkDelivered(r.Context(), id)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Config

func (h *AdminHandlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg siteconfig.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.config.Update(r.Context(), cfg); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Helpers

func orderIDFromPath(path, suffix string) string {
	id := extractPathParam(path, "/admin/orders/")
	return strings.TrimSuffix(id, suffix)
}

func respondCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrPostNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	default:
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	}
}

func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrInvalidStatus):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
