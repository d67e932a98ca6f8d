package marketplace

import (
	"context"
	"log/slog"
	"time"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

const pollBatch = 20

// PaidOrderLister lists recently paid orders
type PaidOrderLister interface {
	ListPaidOrders(ctx context.Context, limit int) ([]Order, error)
}

// OrderPusher accepts order events
type OrderPusher interface {
	PushOrder(ev models.OrderEvent) error
}

// Poller periodically fetches paid orders and feeds the unseen ones into the queue.
// It covers webhooks the marketplace failed to deliver.
type Poller struct {
	api   PaidOrderLister
	dedup Deduper
	queue OrderPusher
	log   *slog.Logger
}

// NewPoller creates a new paid-order poller
func NewPoller(api PaidOrderLister, dedup Deduper, queue OrderPusher, log *slog.Logger) *Poller {
	return &Poller{
		api:   api,
		dedup: dedup,
		queue: queue,
		log:   log,
	}
}

func pollKey(orderID string) string {
	return "order:" + orderID
}

// Seed marks all currently listed orders as seen so a restart does not replay them
func (p *Poller) Seed(ctx context.Context) error {
	orders, err := p.api.ListPaidOrders(ctx, pollBatch)
	if err != nil {
		return err
	}

	seeded := 0
	for _, o := range orders {
		if o.ID == "" {
			continue
		}
		isNew, err := p.dedup.MarkEventProcessed(ctx, pollKey(o.ID))
		if err != nil {
			p.log.Warn("seed order", "order_id", o.ID, "error", err)
			continue
		}
		if isNew {
			seeded++
		}
	}

	p.log.Info("seeded paid orders", "listed", len(orders), "new", seeded)
	return nil
}

// Start runs the poll loop until ctx is done. A non-positive interval disables polling.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		p.log.Info("order poller disabled")
		return
	}

	p.log.Info("order poller started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.log.Error("poll paid orders", "error", err)
			}
		}
	}
}

// Poll fetches paid orders once and returns how many were queued
func (p *Poller) Poll(ctx context.Context) (int, error) {
	orders, err := p.api.ListPaidOrders(ctx, pollBatch)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, o := range orders {
		if o.ID == "" {
			continue
		}

		key := pollKey(o.ID)
		isNew, err := p.dedup.MarkEventProcessed(ctx, key)
		if err != nil {
			p.log.Error("mark order processed", "order_id", o.ID, "error", err)
			continue
		}
		if !isNew {
			continue
		}

		if err := p.queue.PushOrder(o.Event(key)); err != nil {
			p.log.Error("enqueue polled order", "order_id", o.ID, "error", err)
			if err := p.dedup.ForgetEvent(ctx, key); err != nil {
				p.log.Error("forget polled order", "order_id", o.ID, "error", err)
			}
			continue
		}

		p.log.Info("polled new paid order", "order_id", o.ID, "buyer_id", o.BuyerID)
		queued++
	}

	return queued, nil
}
