package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/transition"
	"github.com/cardapio-pos/api/internal/unified"
	"github.com/cardapio-pos/api/internal/ws"
)

// boardListLimit caps how many delivery orders the board pulls in.
const boardListLimit = 200

// BoardStore defines the database methods needed by the kanban board.
// Satisfied by *database.Queries; narrow interface for testability.
type BoardStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListLiveTableOrders(ctx context.Context) ([]database.ListLiveTableOrdersRow, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// BoardMover moves a dine-in order to a board column.
// Satisfied by *service.SessionService.
type BoardMover interface {
	MoveTableOrder(ctx context.Context, orderID uuid.UUID, status string) (database.TableOrder, error)
}

// BoardHandler serves the unified kanban view over both order families.
type BoardHandler struct {
	store BoardStore
	mover BoardMover
	hub   Notifier
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(store BoardStore, mover BoardMover, hub Notifier) *BoardHandler {
	return &BoardHandler{store: store, mover: mover, hub: hub}
}

// RegisterRoutes registers board endpoints on the given Chi router.
func (h *BoardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{type}/{id}/move", h.Move)
}

type moveRequest struct {
	Status string `json:"status"`
}

type boardResponse struct {
	Orders []unified.Order `json:"orders"`
}

// List handles GET /board: both order families projected onto the shared
// six-column status model, newest first.
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		Status: pgtype.Text{},
		Limit:  boardListLimit,
	})
	if err != nil {
		log.Printf("ERROR: list orders for board: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	tables, err := h.store.ListLiveTableOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list table orders for board: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, boardResponse{Orders: unified.Project(deliveries, tables)})
}

// Move handles POST /board/{type}/{id}/move. Drops into any column are
// accepted for either family; dine-in statuses go through the lossy unified
// mapping, so some columns collapse to OPEN on the way back.
func (h *BoardHandler) Move(w http.ResponseWriter, r *http.Request) {
	orderType := chi.URLParam(r, "type")
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !transition.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	switch orderType {
	case unified.TypeDelivery:
		updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
			ID:     orderID,
			Status: req.Status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
				return
			}
			log.Printf("ERROR: move delivery order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		h.notify(orderID)
		writeJSON(w, http.StatusOK, toOrderResponse(updated))

	case unified.TypeTable:
		moved, err := h.mover.MoveTableOrder(r.Context(), orderID, unified.ToTableStatus(req.Status))
		if err != nil {
			writeSessionError(w, err, "move table order")
			return
		}
		h.notify(orderID)
		writeJSON(w, http.StatusOK, toTableOrderResponse(moved))

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order type"})
	}
}

func (h *BoardHandler) notify(orderID uuid.UUID) {
	if h.hub == nil {
		return
	}
	h.hub.Notify(ws.ChannelOrders, "order.status_changed", map[string]string{"order_id": orderID.String()})
}
