package marketplace

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WebhookAPI is the part of the marketplace API the manager needs
type WebhookAPI interface {
	ListWebhooks(ctx context.Context) ([]Webhook, error)
	CreateWebhook(ctx context.Context, endpoint string) (*Webhook, error)
}

// Manager keeps our webhook registered with the marketplace
type Manager struct {
	api      WebhookAPI
	endpoint string
	log      *slog.Logger

	mu        sync.Mutex
	webhookID int64
}

// NewManager creates a new webhook manager
func NewManager(api WebhookAPI, endpoint string, log *slog.Logger) *Manager {
	return &Manager{
		api:      api,
		endpoint: endpoint,
		log:      log,
	}
}

// Init finds the webhook for our endpoint, creating it if necessary
func (m *Manager) Init(ctx context.Context) error {
	if m.endpoint == "" {
		m.log.Warn("webhook endpoint not set, skipping webhook init")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ensure(ctx)
}

func (m *Manager) ensure(ctx context.Context) error {
	webhooks, err := m.api.ListWebhooks(ctx)
	if err != nil {
		return err
	}

	for _, wh := range webhooks {
		if wh.Endpoint == m.endpoint {
			if m.webhookID != wh.ID {
				m.log.Info("using existing webhook", "id", wh.ID)
			}
			m.webhookID = wh.ID
			return nil
		}
	}

	webhook, err := m.api.CreateWebhook(ctx, m.endpoint)
	if err != nil {
		return err
	}

	m.webhookID = webhook.ID
	m.log.Info("created new webhook", "id", webhook.ID, "endpoint", m.endpoint)

	return nil
}

// SyncLoop periodically re-registers the webhook if the marketplace dropped it
func (m *Manager) SyncLoop(ctx context.Context, interval time.Duration) {
	if m.endpoint == "" || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("webhook sync loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			err := m.ensure(ctx)
			m.mu.Unlock()
			if err != nil {
				m.log.Error("sync webhook", "error", err)
			}
		}
	}
}

// WebhookID returns the current webhook ID, 0 if none is registered
func (m *Manager) WebhookID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.webhookID
}
