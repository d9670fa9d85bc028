// Package kitchen folds flat item rows into one card per physical ticket,
// the unit the kitchen display works with.
package kitchen

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
)

// Item is one line on a ticket as the kitchen sees it.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	Observation string    `json:"observation,omitempty"`
	Status      string    `json:"status"`
	OrderedAt   time.Time `json:"ordered_at"`
}

// Card is one ticket: all still-active items of one order at one table.
type Card struct {
	OrderID     uuid.UUID `json:"order_id"`
	TableNumber int32     `json:"table_number"`
	Status      string    `json:"status"`
	Items       []Item    `json:"items"`
	OldestAt    time.Time `json:"oldest_at"`
}

// Aggregate groups items into cards keyed by (order, table). A card's status
// is the coarsest among its items: any PENDING makes the card PENDING, else
// any PREPARING makes it PREPARING, else it is READY. Delivered and cancelled
// items never reach this function (the query excludes them), but they are
// skipped here too so callers can pass unfiltered rows.
func Aggregate(rows []database.ListKitchenItemsRow) []Card {
	type key struct {
		orderID     uuid.UUID
		tableNumber int32
	}

	index := make(map[key]int)
	var cards []Card

	for _, r := range rows {
		if r.Status == enum.ItemStatusDelivered || r.Status == enum.ItemStatusCancelled {
			continue
		}

		k := key{r.OrderID, r.TableNumber}
		i, ok := index[k]
		if !ok {
			i = len(cards)
			index[k] = i
			cards = append(cards, Card{
				OrderID:     r.OrderID,
				TableNumber: r.TableNumber,
				OldestAt:    r.OrderedAt,
			})
		}

		item := Item{
			ID:          r.ID,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			Status:      r.Status,
			OrderedAt:   r.OrderedAt,
		}
		if r.Observation.Valid {
			item.Observation = r.Observation.String
		}
		cards[i].Items = append(cards[i].Items, item)
		if r.OrderedAt.Before(cards[i].OldestAt) {
			cards[i].OldestAt = r.OrderedAt
		}
	}

	for i := range cards {
		cards[i].Status = cardStatus(cards[i].Items)
	}

	// Oldest ticket first: the kitchen works the queue front to back.
	sort.SliceStable(cards, func(a, b int) bool {
		return cards[a].OldestAt.Before(cards[b].OldestAt)
	})

	return cards
}

func cardStatus(items []Item) string {
	anyPreparing := false
	for _, it := range items {
		switch it.Status {
		case enum.ItemStatusPending:
			return enum.ItemStatusPending
		case enum.ItemStatusPreparing:
			anyPreparing = true
		}
	}
	if anyPreparing {
		return enum.ItemStatusPreparing
	}
	return enum.ItemStatusReady
}
