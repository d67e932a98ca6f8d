package orders

import (
	"context"
	"errors"

	"github.com/suspectuso/mc-currency/internal/delivery"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrDeliveryInFlight = errors.New("delivery already in progress")
	ErrNotRunning       = errors.New("engine is not running")
	ErrAlreadyRunning   = errors.New("engine is already running")
	ErrNoUsername       = errors.New("no username to deliver to")
	ErrNotReady         = errors.New("order is not ready for delivery")
	ErrNothingReady     = errors.New("no orders ready for delivery")
)

// PendingStore holds orders whose delivery is not finalized
type PendingStore interface {
	Get(orderID string) (models.PendingOrder, bool)
	Put(o models.PendingOrder) error
	Delete(orderID string) error
	List() []models.PendingOrder
	Clear() error
	Reload() error
}

// LedgerStore links orders to buyers and chats
type LedgerStore interface {
	Get(orderID string) (models.OrderRecord, bool)
	Put(r models.OrderRecord) error
	List() []models.OrderRecord
	Clear() error
	Reload() error
}

// SettingsStore exposes the runtime settings
type SettingsStore interface {
	Get() models.Settings
	Update(fn func(*models.Settings)) (models.Settings, error)
}

// Notifier delivers text to buyers and administrators
type Notifier interface {
	NotifyBuyer(ctx context.Context, chatID, text string) error
	NotifyAdmin(ctx context.Context, text string) error
}

// Deliverer performs the in-game currency transfer
type Deliverer interface {
	Deliver(ctx context.Context, username string, amount int64) delivery.Result
	Probe(ctx context.Context) delivery.ProbeResult
}

// OrderFetcher looks up the full order on the marketplace
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error)
}

// Archive keeps finished orders after they leave the pending table
type Archive interface {
	RecordFinished(ctx context.Context, o models.PendingOrder, rec models.OrderRecord) error
	IsFinished(ctx context.Context, orderID string) (bool, error)
}
