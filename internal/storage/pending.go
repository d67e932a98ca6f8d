package storage

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// PendingTable is the file-backed table of orders awaiting delivery
type PendingTable struct {
	file *jsonFile
	log  *slog.Logger

	mu    sync.RWMutex
	items map[string]models.PendingOrder
}

// NewPendingTable opens the table stored at path
func NewPendingTable(path string, log *slog.Logger) *PendingTable {
	t := &PendingTable{
		file:  newJSONFile(path),
		log:   log,
		items: make(map[string]models.PendingOrder),
	}
	t.Reload()
	return t
}

// Reload replaces the in-memory table with the file contents.
// A missing or corrupt file yields an empty table.
func (t *PendingTable) Reload() error {
	items := make(map[string]models.PendingOrder)
	if err := t.file.load(&items); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			t.log.Error("load pending orders", "path", t.file.path, "error", err)
		}
		items = make(map[string]models.PendingOrder)
	}

	for id, o := range items {
		if o.OrderID == "" {
			o.OrderID = id
			items[id] = o
		}
	}

	t.mu.Lock()
	t.items = items
	t.mu.Unlock()

	t.log.Info("pending orders loaded", "count", len(items))
	return nil
}

// Get returns the pending order by ID
func (t *PendingTable) Get(orderID string) (models.PendingOrder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.items[orderID]
	return o, ok
}

// Put inserts or replaces an order and flushes the table
func (t *PendingTable) Put(o models.PendingOrder) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[o.OrderID] = o
	return t.file.save(t.items)
}

// Delete removes an order and flushes the table
func (t *PendingTable) Delete(orderID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[orderID]; !ok {
		return ErrNotFound
	}
	delete(t.items, orderID)
	return t.file.save(t.items)
}

// List returns all orders, oldest first
func (t *PendingTable) List() []models.PendingOrder {
	t.mu.RLock()
	out := make([]models.PendingOrder, 0, len(t.items))
	for _, o := range t.items {
		out = append(out, o)
	}
	t.mu.RUnlock()

	sortOrders(out)
	return out
}

// Clear empties the table and flushes it
func (t *PendingTable) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[string]models.PendingOrder)
	return t.file.save(t.items)
}

func sortOrders(orders []models.PendingOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Date.Equal(orders[j].Date) {
			return orders[i].Date.Before(orders[j].Date)
		}
		return orders[i].OrderID < orders[j].OrderID
	})
}
