package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

var ErrOrderNotFound = errors.New("marketplace order not found")

// APIError is a non-2xx answer from the marketplace
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Client is a marketplace HTTP client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// Rate limiting
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewClient creates a new marketplace client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		minDelay: 250 * time.Millisecond, // ~4 RPS
	}
}

// WithMinDelay changes the minimum spacing between requests
func (c *Client) WithMinDelay(d time.Duration) *Client {
	c.minDelay = d
	return c
}

func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastCall)
	if wait := c.minDelay - elapsed; wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastCall = time.Now()
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// SendMessage posts text into a chat
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	_, err := c.doRequest(ctx, http.MethodPost, path, sendMessageRequest{ChatID: chatID, Text: text})
	return err
}

// GetOrder returns the full order
func (c *Client) GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return models.OrderDetail{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return models.OrderDetail{}, err
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return models.OrderDetail{}, fmt.Errorf("unmarshal: %w", err)
	}
	if order.ID == "" {
		order.ID = orderID
	}

	return order.Detail(), nil
}

// ListPaidOrders returns the most recent paid orders
func (c *Client) ListPaidOrders(ctx context.Context, limit int) ([]Order, error) {
	path := fmt.Sprintf("/orders?status=paid&limit=%d", limit)
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp OrdersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return resp.Orders, nil
}

// --- Webhook Management ---

// ListWebhooks returns all webhooks
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/webhooks", nil)
	if err != nil {
		return nil, err
	}

	var resp WebhookListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return resp.Webhooks, nil
}

// CreateWebhook creates a new webhook
func (c *Client) CreateWebhook(ctx context.Context, endpoint string) (*Webhook, error) {
	body := map[string]string{"endpoint": endpoint}
	data, err := c.doRequest(ctx, http.MethodPost, "/webhooks", body)
	if err != nil {
		return nil, err
	}

	var webhook Webhook
	if err := json.Unmarshal(data, &webhook); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &webhook, nil
}
