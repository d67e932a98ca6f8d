package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/suspectuso/mc-currency/internal/delivery"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

var errMissing = errors.New("missing")

type memPending struct {
	mu    sync.Mutex
	items map[string]models.PendingOrder
}

func newMemPending() *memPending {
	return &memPending{items: make(map[string]models.PendingOrder)}
}

func (m *memPending) Get(id string) (models.PendingOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	return o, ok
}

func (m *memPending) Put(o models.PendingOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[o.OrderID] = o
	return nil
}

func (m *memPending) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return errMissing
	}
	delete(m.items, id)
	return nil
}

func (m *memPending) List() []models.PendingOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PendingOrder, 0, len(m.items))
	for _, o := range m.items {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

func (m *memPending) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]models.PendingOrder)
	return nil
}

func (m *memPending) Reload() error { return nil }

type memLedger struct {
	mu      sync.Mutex
	records map[string]models.OrderRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]models.OrderRecord)}
}

func (m *memLedger) Get(id string) (models.OrderRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

func (m *memLedger) Put(r models.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.OrderID] = r
	return nil
}

func (m *memLedger) List() []models.OrderRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.OrderRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

func (m *memLedger) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]models.OrderRecord)
	return nil
}

func (m *memLedger) Reload() error { return nil }

type memSettings struct {
	mu sync.Mutex
	s  models.Settings
}

func (m *memSettings) Get() models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone()
}

func (m *memSettings) Update(fn func(*models.Settings)) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.s)
	return m.s.Clone(), nil
}

type sent struct {
	chatID string
	text   string
}

type recNotifier struct {
	mu    sync.Mutex
	buyer []sent
	admin []string
}

func (n *recNotifier) NotifyBuyer(_ context.Context, chatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.buyer = append(n.buyer, sent{chatID: chatID, text: text})
	return nil
}

func (n *recNotifier) NotifyAdmin(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, text)
	return nil
}

func (n *recNotifier) buyerTexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.buyer))
	for _, s := range n.buyer {
		out = append(out, s.text)
	}
	return out
}

func (n *recNotifier) lastBuyer() sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.buyer) == 0 {
		return sent{}
	}
	return n.buyer[len(n.buyer)-1]
}

func (n *recNotifier) adminTexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.admin...)
}

type deliverCall struct {
	username string
	amount   int64
}

// fakeDeliverer returns result; when gate is set each call blocks until it is closed
type fakeDeliverer struct {
	mu     sync.Mutex
	calls  []deliverCall
	result delivery.Result
	gate   chan struct{}
	panics bool
}

func (d *fakeDeliverer) Deliver(_ context.Context, username string, amount int64) delivery.Result {
	d.mu.Lock()
	d.calls = append(d.calls, deliverCall{username: username, amount: amount})
	gate, res, panics := d.gate, d.result, d.panics
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if panics {
		panic("script exploded")
	}
	return res
}

func (d *fakeDeliverer) Probe(context.Context) delivery.ProbeResult {
	return delivery.ProbeResult{Connected: true, Message: "ok"}
}

func (d *fakeDeliverer) Calls() []deliverCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]deliverCall(nil), d.calls...)
}

type fakeFetcher struct {
	orders map[string]models.OrderDetail
}

func (f *fakeFetcher) GetOrder(_ context.Context, id string) (models.OrderDetail, error) {
	d, ok := f.orders[id]
	if !ok {
		return models.OrderDetail{}, errMissing
	}
	return d, nil
}

type memArchive struct {
	mu       sync.Mutex
	finished map[string]models.PendingOrder
}

func newMemArchive() *memArchive {
	return &memArchive{finished: make(map[string]models.PendingOrder)}
}

func (a *memArchive) RecordFinished(_ context.Context, o models.PendingOrder, _ models.OrderRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished[o.OrderID] = o
	return nil
}

func (a *memArchive) IsFinished(_ context.Context, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.finished[id]
	return ok, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
