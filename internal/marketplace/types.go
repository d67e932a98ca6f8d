package marketplace

import (
	"strings"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// Order is a marketplace order as returned by the API. Depending on the lot type
// the purchased units arrive in amount, quantity or count.
type Order struct {
	ID               string  `json:"id"`
	Status           string  `json:"status"`
	BuyerID          int64   `json:"buyer_id"`
	BuyerUsername    string  `json:"buyer_username"`
	ChatID           string  `json:"chat_id"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description"`
	LotTitle         string  `json:"lot_title"`
	Price            float64 `json:"price"`
	Amount           int64   `json:"amount"`
	Quantity         int64   `json:"quantity"`
	Count            int64   `json:"count"`
	CreatedAt        int64   `json:"created_at"`
}

// Detail normalizes the order
func (o Order) Detail() models.OrderDetail {
	return models.OrderDetail{
		OrderID:       o.ID,
		BuyerID:       o.BuyerID,
		ChatID:        o.ChatID,
		BuyerUsername: o.BuyerUsername,
		Description:   firstNonEmpty(o.Description, o.ShortDescription, o.LotTitle),
		Quantity:      firstPositive(o.Amount, o.Quantity, o.Count),
		Price:         o.Price,
	}
}

// Event converts the order into an inbound order event
func (o Order) Event(eventID string) models.OrderEvent {
	d := o.Detail()
	return models.OrderEvent{
		EventID:     eventID,
		OrderID:     d.OrderID,
		BuyerID:     d.BuyerID,
		ChatID:      d.ChatID,
		Description: d.Description,
		Quantity:    d.Quantity,
		Price:       d.Price,
	}
}

// OrdersResponse is the response from the orders list endpoint
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

// Webhook represents a registered webhook endpoint
type Webhook struct {
	ID       int64  `json:"webhook_id"`
	Endpoint string `json:"endpoint"`
}

// WebhookListResponse is the response from webhook list endpoint
type WebhookListResponse struct {
	Webhooks []Webhook `json:"webhooks"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstPositive(vals ...int64) int64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
