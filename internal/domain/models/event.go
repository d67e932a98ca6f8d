package models

// MessageEvent is a chat message observed on the marketplace
type MessageEvent struct {
	EventID  string `json:"event_id,omitempty"`
	AuthorID int64  `json:"author_id"`
	ChatID   string `json:"chat_id" validate:"required"`
	Text     string `json:"text"`
}

// OrderEvent is a new paid order observed on the marketplace
type OrderEvent struct {
	EventID     string  `json:"event_id,omitempty"`
	OrderID     string  `json:"order_id" validate:"required,alphanum"`
	BuyerID     int64   `json:"buyer_id"`
	ChatID      string  `json:"chat_id"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// Detail converts the event into the normalized order structure
func (e OrderEvent) Detail() OrderDetail {
	return OrderDetail{
		OrderID:     e.OrderID,
		BuyerID:     e.BuyerID,
		ChatID:      e.ChatID,
		Description: e.Description,
		Quantity:    e.Quantity,
		Price:       e.Price,
	}
}
