package marketplace_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspectuso/mc-currency/internal/domain/models"
	"github.com/suspectuso/mc-currency/internal/marketplace"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recHandler struct {
	mu       sync.Mutex
	messages []models.MessageEvent
	orders   []models.OrderEvent
	seen     chan struct{}
}

func newRecHandler() *recHandler {
	return &recHandler{seen: make(chan struct{}, 16)}
}

func (h *recHandler) HandleMessage(_ context.Context, ev models.MessageEvent) {
	h.mu.Lock()
	h.messages = append(h.messages, ev)
	h.mu.Unlock()
	h.seen <- struct{}{}
}

func (h *recHandler) HandleOrder(_ context.Context, ev models.OrderEvent) {
	h.mu.Lock()
	h.orders = append(h.orders, ev)
	h.mu.Unlock()
	h.seen <- struct{}{}
}

type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDedup() *memDedup {
	return &memDedup{seen: make(map[string]bool)}
}

func (d *memDedup) MarkEventProcessed(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDedup) ForgetEvent(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "marketplace",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func post(h http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_QueuesEvents(t *testing.T) {
	q := marketplace.NewQueue(newRecHandler(), 8, discardLogger())
	srv := marketplace.NewServer(q, newMemDedup(), "", discardLogger())
	h := srv.Routes()

	rr := post(h, "/webhook/message", `{"event_id":"m1","author_id":7,"chat_id":"chat-7","text":"Steve"}`, "")
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = post(h, "/webhook/order", `{"event_id":"o1","order_id":"A100","buyer_id":7,"chat_id":"chat-7","quantity":1}`, "")
	assert.Equal(t, http.StatusAccepted, rr.Code)

	assert.Equal(t, 2, q.Len())
}

func TestServer_DropsDuplicates(t *testing.T) {
	q := marketplace.NewQueue(newRecHandler(), 8, discardLogger())
	h := marketplace.NewServer(q, newMemDedup(), "", discardLogger()).Routes()

	body := `{"event_id":"o1","order_id":"A100"}`
	assert.Equal(t, http.StatusAccepted, post(h, "/webhook/order", body, "").Code)

	rr := post(h, "/webhook/order", body, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "duplicate")
	assert.Equal(t, 1, q.Len())
}

func TestServer_RejectsInvalidPayloads(t *testing.T) {
	q := marketplace.NewQueue(newRecHandler(), 8, discardLogger())
	h := marketplace.NewServer(q, nil, "", discardLogger()).Routes()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/webhook/order", `{"order_id":`},
		{"missing order id", "/webhook/order", `{"buyer_id":7}`},
		{"non alphanumeric order id", "/webhook/order", `{"order_id":"A-1"}`},
		{"negative quantity", "/webhook/order", `{"order_id":"A1","quantity":-2}`},
		{"missing chat", "/webhook/message", `{"author_id":7,"text":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(h, tt.path, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
	assert.Zero(t, q.Len())
}

func TestServer_QueueFull(t *testing.T) {
	q := marketplace.NewQueue(newRecHandler(), 1, discardLogger())
	h := marketplace.NewServer(q, nil, "", discardLogger()).Routes()

	assert.Equal(t, http.StatusAccepted, post(h, "/webhook/order", `{"order_id":"A1"}`, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, post(h, "/webhook/order", `{"order_id":"A2"}`, "").Code)
}

func TestServer_RetryAfterQueueFull(t *testing.T) {
	rec := newRecHandler()
	q := marketplace.NewQueue(rec, 1, discardLogger())
	h := marketplace.NewServer(q, newMemDedup(), "", discardLogger()).Routes()

	assert.Equal(t, http.StatusAccepted, post(h, "/webhook/order", `{"event_id":"e1","order_id":"A1"}`, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, post(h, "/webhook/order", `{"event_id":"e2","order_id":"A2"}`, "").Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	select {
	case <-rec.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("event not handled")
	}

	// the marketplace retries the rejected event
	rr := post(h, "/webhook/order", `{"event_id":"e2","order_id":"A2"}`, "")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.NotContains(t, rr.Body.String(), "duplicate")
}

func TestServer_JWTAuth(t *testing.T) {
	q := marketplace.NewQueue(newRecHandler(), 8, discardLogger())
	h := marketplace.NewServer(q, nil, "s3cret", discardLogger()).Routes()
	body := `{"order_id":"A1"}`

	assert.Equal(t, http.StatusUnauthorized, post(h, "/webhook/order", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, "/webhook/order", body, signToken(t, "other")).Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, "/webhook/order", body, "not-a-jwt").Code)
	assert.Equal(t, http.StatusAccepted, post(h, "/webhook/order", body, signToken(t, "s3cret")).Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestJWTAuth_StoresSubject(t *testing.T) {
	var sub string
	h := marketplace.JWTAuth("k")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ = marketplace.SubjectFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "k"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "marketplace", sub)
}

func TestQueue_RunsInOrder(t *testing.T) {
	rec := newRecHandler()
	q := marketplace.NewQueue(rec, 8, discardLogger())

	require.NoError(t, q.PushOrder(models.OrderEvent{OrderID: "A1"}))
	require.NoError(t, q.PushMessage(models.MessageEvent{ChatID: "c", Text: "Steve"}))
	require.NoError(t, q.PushOrder(models.OrderEvent{OrderID: "A2"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-rec.seen:
		case <-time.After(2 * time.Second):
			t.Fatal("event not handled")
		}
	}
	cancel()
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.orders, 2)
	assert.Equal(t, "A1", rec.orders[0].OrderID)
	assert.Equal(t, "A2", rec.orders[1].OrderID)
	require.Len(t, rec.messages, 1)
	assert.Equal(t, "Steve", rec.messages[0].Text)
}
