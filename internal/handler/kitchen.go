package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/kitchen"
)

// KitchenStore defines the database methods needed by the kitchen view.
// Satisfied by *database.Queries; narrow interface for testability.
type KitchenStore interface {
	ListKitchenItems(ctx context.Context) ([]database.ListKitchenItemsRow, error)
}

// KitchenHandler serves the kitchen ticket board.
type KitchenHandler struct {
	store KitchenStore
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(store KitchenStore) *KitchenHandler {
	return &KitchenHandler{store: store}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type kitchenResponse struct {
	Cards []kitchen.Card `json:"cards"`
}

// List handles GET /kitchen: one card per live order that still has
// something to cook, oldest first.
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListKitchenItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list kitchen items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, kitchenResponse{Cards: kitchen.Aggregate(rows)})
}
