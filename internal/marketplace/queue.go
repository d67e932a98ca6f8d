package marketplace

import (
	"context"
	"errors"
	"log/slog"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

var ErrQueueFull = errors.New("event queue is full")

// Handler applies inbound marketplace events
type Handler interface {
	HandleMessage(ctx context.Context, ev models.MessageEvent)
	HandleOrder(ctx context.Context, ev models.OrderEvent)
}

type queued struct {
	msg   *models.MessageEvent
	order *models.OrderEvent
}

// Queue hands events to the handler one at a time, in arrival order
type Queue struct {
	events  chan queued
	handler Handler
	log     *slog.Logger
}

// NewQueue creates a queue buffering up to size events
func NewQueue(handler Handler, size int, log *slog.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{
		events:  make(chan queued, size),
		handler: handler,
		log:     log,
	}
}

// PushMessage enqueues a chat message without blocking
func (q *Queue) PushMessage(ev models.MessageEvent) error {
	return q.push(queued{msg: &ev})
}

// PushOrder enqueues an order without blocking
func (q *Queue) PushOrder(ev models.OrderEvent) error {
	return q.push(queued{order: &ev})
}

func (q *Queue) push(ev queued) error {
	select {
	case q.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of waiting events
func (q *Queue) Len() int {
	return len(q.events)
}

// Run consumes events until ctx is done
func (q *Queue) Run(ctx context.Context) {
	q.log.Info("event queue started")

	for {
		select {
		case <-ctx.Done():
			q.log.Info("event queue stopped", "dropped", len(q.events))
			return
		case ev := <-q.events:
			switch {
			case ev.msg != nil:
				q.handler.HandleMessage(ctx, *ev.msg)
			case ev.order != nil:
				q.handler.HandleOrder(ctx, *ev.order)
			}
		}
	}
}
