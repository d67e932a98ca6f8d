package storage

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// Ledger maps order IDs to buyer and chat linkage
type Ledger struct {
	file *jsonFile
	log  *slog.Logger

	mu      sync.RWMutex
	records map[string]models.OrderRecord
}

// NewLedger opens the ledger stored at path
func NewLedger(path string, log *slog.Logger) *Ledger {
	l := &Ledger{
		file:    newJSONFile(path),
		log:     log,
		records: make(map[string]models.OrderRecord),
	}
	l.Reload()
	return l
}

// Reload replaces the in-memory ledger with the file contents
func (l *Ledger) Reload() error {
	records := make(map[string]models.OrderRecord)
	if err := l.file.load(&records); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Error("load order ledger", "path", l.file.path, "error", err)
		}
		records = make(map[string]models.OrderRecord)
	}

	for id, r := range records {
		if r.OrderID == "" {
			r.OrderID = id
			records[id] = r
		}
	}

	l.mu.Lock()
	l.records = records
	l.mu.Unlock()

	l.log.Info("order ledger loaded", "count", len(records))
	return nil
}

// Get returns the record for an order
func (l *Ledger) Get(orderID string) (models.OrderRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.records[orderID]
	return r, ok
}

// Put stores a record and flushes the ledger
func (l *Ledger) Put(r models.OrderRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[r.OrderID] = r
	return l.file.save(l.records)
}

// List returns all records ordered by ID
func (l *Ledger) List() []models.OrderRecord {
	l.mu.RLock()
	out := make([]models.OrderRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Clear empties the ledger and flushes it
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make(map[string]models.OrderRecord)
	return l.file.save(l.records)
}
