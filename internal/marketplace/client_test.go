package marketplace_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspectuso/mc-currency/internal/marketplace"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *marketplace.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return marketplace.NewClient(srv.URL+"/", "tok").WithMinDelay(0)
}

func TestClient_GetOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders/A100", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `{"id":"A100","buyer_id":7,"chat_id":"chat-7","short_description":"Монеты","count":3,"price":150.5}`)
	})

	d, err := c.GetOrder(context.Background(), "A100")
	require.NoError(t, err)
	assert.Equal(t, "A100", d.OrderID)
	assert.Equal(t, int64(7), d.BuyerID)
	assert.Equal(t, "chat-7", d.ChatID)
	assert.Equal(t, "Монеты", d.Description)
	assert.Equal(t, int64(3), d.Quantity)
	assert.Equal(t, 150.5, d.Price)
}

func TestClient_GetOrderNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such order", http.StatusNotFound)
	})

	_, err := c.GetOrder(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, marketplace.ErrOrderNotFound)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := c.SendMessage(context.Background(), "chat-1", "hi")
	var apiErr *marketplace.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "boom")
}

func TestClient_SendMessage(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chats/chat-7/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.SendMessage(context.Background(), "chat-7", "Спасибо!"))
	assert.Equal(t, "chat-7", got["chat_id"])
	assert.Equal(t, "Спасибо!", got["text"])
}

func TestClient_ListPaidOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"orders":[{"id":"A1","amount":2},{"id":"B2","quantity":5}]}`)
	})

	orders, err := c.ListPaidOrders(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].Detail().Quantity)
	assert.Equal(t, int64(5), orders[1].Detail().Quantity)
}

func TestClient_Webhooks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"webhooks":[{"webhook_id":3,"endpoint":"https://a/hook"}]}`)
		case http.MethodPost:
			io.WriteString(w, `{"webhook_id":9,"endpoint":"https://b/hook"}`)
		}
	})

	hooks, err := c.ListWebhooks(context.Background())
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, int64(3), hooks[0].ID)

	wh, err := c.CreateWebhook(context.Background(), "https://b/hook")
	require.NoError(t, err)
	assert.Equal(t, int64(9), wh.ID)
}

func TestOrder_DetailFallbacks(t *testing.T) {
	o := marketplace.Order{ID: "X1", LotTitle: "  Лот  ", Amount: 0, Quantity: 0, Count: 0}
	d := o.Detail()
	assert.Equal(t, "Лот", d.Description)
	assert.Zero(t, d.Quantity)

	ev := marketplace.Order{ID: "X2", BuyerID: 4, Description: "desc", Quantity: 6}.Event("order:X2")
	assert.Equal(t, "order:X2", ev.EventID)
	assert.Equal(t, "X2", ev.OrderID)
	assert.Equal(t, int64(6), ev.Quantity)
}
