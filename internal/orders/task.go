package orders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suspectuso/mc-currency/internal/delivery"
)

// Outcome is what one background delivery produced
type Outcome struct {
	OrderID  string
	Username string
	Amount   int64
	Result   delivery.Result
	// Completed is true when the order left the pending table
	Completed bool
	Err       error
}

// Task is a handle to a background delivery
type Task struct {
	ID      string
	OrderID string

	done    chan struct{}
	outcome Outcome
}

func newTask(orderID string) *Task {
	return &Task{
		ID:      uuid.NewString(),
		OrderID: orderID,
		done:    make(chan struct{}),
	}
}

func (t *Task) finish(o Outcome) {
	t.outcome = o
	close(t.done)
}

// Done is closed once the delivery finished
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the delivery finished or ctx is done
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the result if the task already finished
func (t *Task) Outcome() (Outcome, bool) {
	select {
	case <-t.done:
		return t.outcome, true
	default:
		return Outcome{}, false
	}
}

// Summary counts the results of a batch
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Outcomes  []Outcome
}

// Batch is a handle to a sequential re-delivery of ready orders
type Batch struct {
	ID       string
	OrderIDs []string

	done    chan struct{}
	summary Summary
}

func newBatch(orderIDs []string) *Batch {
	return &Batch{
		ID:       uuid.NewString(),
		OrderIDs: orderIDs,
		done:     make(chan struct{}),
	}
}

func (b *Batch) finish(s Summary) {
	b.summary = s
	close(b.done)
}

// Done is closed once every order in the batch was attempted
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch finished or ctx is done
func (b *Batch) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-b.done:
		return b.summary, nil
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

// keyedMutex serializes work per order ID
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the lock for key and returns its release func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()

	return func() {
		m.mu.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
