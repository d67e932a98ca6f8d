package storage

import (
	"time"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// HistoryEntry is an archived order that reached a terminal state
type HistoryEntry struct {
	OrderID       string
	Status        models.Status
	Amount        int64
	Username      string
	LotTitle      string
	Price         float64
	BuyerID       int64
	ChatID        string
	CreatedAt     time.Time
	FinishedAt    time.Time
	FinishedBy    string
	AutoCompleted bool
}

func historyFromOrder(o models.PendingOrder, rec models.OrderRecord) HistoryEntry {
	h := HistoryEntry{
		OrderID:       o.OrderID,
		Status:        o.Status,
		Amount:        o.Amount,
		Username:      o.MinecraftUsername,
		LotTitle:      o.LotTitle,
		Price:         o.Price,
		BuyerID:       rec.BuyerID,
		ChatID:        rec.ChatID,
		CreatedAt:     o.Date,
		AutoCompleted: o.AutoCompleted,
	}
	switch o.Status {
	case models.StatusCompleted:
		if o.CompletedDate != nil {
			h.FinishedAt = *o.CompletedDate
		}
		h.FinishedBy = o.CompletedBy
	case models.StatusCancelled:
		if o.CancelledDate != nil {
			h.FinishedAt = *o.CancelledDate
		}
		h.FinishedBy = o.CancelledBy
	}
	return h
}
