package models

import "time"

// Status is the lifecycle state of a pending currency delivery
type Status string

const (
	StatusWaitingUsername      Status = "waiting_username"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusReadyForAdmin        Status = "ready_for_admin"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
)

// Terminal reports whether the status ends the lifecycle
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OrderRecord links a marketplace order to the buyer and the chat used to reach them
type OrderRecord struct {
	OrderID       string `json:"order_id"`
	BuyerID       int64  `json:"buyer_id"`
	ChatID        string `json:"chat_id"`
	BuyerUsername string `json:"buyer_username,omitempty"`
}

// Backfill copies fields that are empty in r from other. It reports whether anything changed.
func (r *OrderRecord) Backfill(other OrderRecord) bool {
	changed := false
	if r.BuyerID == 0 && other.BuyerID != 0 {
		r.BuyerID = other.BuyerID
		changed = true
	}
	if r.ChatID == "" && other.ChatID != "" {
		r.ChatID = other.ChatID
		changed = true
	}
	if r.BuyerUsername == "" && other.BuyerUsername != "" {
		r.BuyerUsername = other.BuyerUsername
		changed = true
	}
	return changed
}

// PendingOrder is the state machine instance for one currency delivery
type PendingOrder struct {
	OrderID           string    `json:"order_id"`
	Amount            int64     `json:"amount"`
	LotTitle          string    `json:"lot_title"`
	Price             float64   `json:"price"`
	Date              time.Time `json:"date"`
	Status            Status    `json:"status"`
	MinecraftUsername string    `json:"minecraft_username,omitempty"`
	ProposedUsername  string    `json:"proposed_username,omitempty"`

	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CompletedBy   string     `json:"completed_by,omitempty"`
	AutoCompleted bool       `json:"auto_completed,omitempty"`
	CancelledDate *time.Time `json:"cancelled_date,omitempty"`
	CancelledBy   string     `json:"cancelled_by,omitempty"`
}

// WaitingForUsername is true while the buyer has not proposed a nickname yet
func (o PendingOrder) WaitingForUsername() bool {
	return o.Status == StatusWaitingUsername
}

// WaitingForConfirmation is true while a proposed nickname awaits "+" or "-"
func (o PendingOrder) WaitingForConfirmation() bool {
	return o.Status == StatusAwaitingConfirmation
}

// MarkCompleted stamps completion metadata
func (o *PendingOrder) MarkCompleted(at time.Time, by string, auto bool) {
	o.Status = StatusCompleted
	o.CompletedDate = &at
	o.CompletedBy = by
	o.AutoCompleted = auto
}

// MarkCancelled stamps cancellation metadata
func (o *PendingOrder) MarkCancelled(at time.Time, by string) {
	o.Status = StatusCancelled
	o.CancelledDate = &at
	o.CancelledBy = by
}

// OrderDetail is the normalized view of a marketplace order
type OrderDetail struct {
	OrderID       string
	BuyerID       int64
	ChatID        string
	BuyerUsername string
	Description   string
	Quantity      int64 // 0 when the marketplace did not report it
	Price         float64
}

// Record returns the ledger entry for the order
func (d OrderDetail) Record() OrderRecord {
	return OrderRecord{
		OrderID:       d.OrderID,
		BuyerID:       d.BuyerID,
		ChatID:        d.ChatID,
		BuyerUsername: d.BuyerUsername,
	}
}
