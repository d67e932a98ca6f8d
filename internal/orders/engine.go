package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suspectuso/mc-currency/internal/delivery"
	"github.com/suspectuso/mc-currency/internal/domain/models"
	"github.com/suspectuso/mc-currency/internal/notify"
)

const (
	completedByAuto   = "auto_bot"
	DefaultTestAmount = 1000
)

// Config tunes the engine
type Config struct {
	// SelfID is our own marketplace account; its messages and orders are ignored
	SelfID int64
	// BatchDelay separates deliveries of a bulk re-run
	BatchDelay time.Duration
	TestAmount int64
}

// Deps are the collaborators of the engine. Fetcher and Archive are optional.
type Deps struct {
	Pending   PendingStore
	Ledger    LedgerStore
	Settings  SettingsStore
	Notifier  Notifier
	Deliverer Deliverer
	Fetcher   OrderFetcher
	Archive   Archive
}

// Engine drives every order through username collection, confirmation and delivery
type Engine struct {
	cfg       Config
	pending   PendingStore
	ledger    LedgerStore
	settings  SettingsStore
	notifier  Notifier
	deliverer Deliverer
	fetcher   OrderFetcher
	archive   Archive
	log       *slog.Logger
	now       func() time.Time

	running atomic.Bool
	locks   *keyedMutex

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// New creates an Engine. It starts running when the auto_start setting is on.
func New(cfg Config, deps Deps, log *slog.Logger) *Engine {
	if cfg.TestAmount <= 0 {
		cfg.TestAmount = DefaultTestAmount
	}

	e := &Engine{
		cfg:       cfg,
		pending:   deps.Pending,
		ledger:    deps.Ledger,
		settings:  deps.Settings,
		notifier:  deps.Notifier,
		deliverer: deps.Deliverer,
		fetcher:   deps.Fetcher,
		archive:   deps.Archive,
		log:       log,
		now:       time.Now,
		locks:     newKeyedMutex(),
		inFlight:  make(map[string]struct{}),
	}
	e.running.Store(deps.Settings.Get().AutoStart)
	return e
}

// --- Inbound events ---

// HandleOrder processes a paid order reported by the marketplace
func (e *Engine) HandleOrder(ctx context.Context, ev models.OrderEvent) {
	const op = "orders.HandleOrder"
	log := e.log.With("op", op, "order_id", ev.OrderID)
	defer e.recoverPanic(log)

	if !e.running.Load() {
		log.Debug("engine stopped, order ignored")
		return
	}
	if e.cfg.SelfID != 0 && ev.BuyerID == e.cfg.SelfID {
		log.Info("order placed by own account, skipping")
		return
	}

	log.Info("new order", "description", ev.Description, "quantity", ev.Quantity)

	fallback := ev.Detail()
	if err := e.observeOrder(ctx, log, ev.OrderID, &fallback); err != nil {
		log.Error("observe order", "error", err)
	}
}

// HandleMessage processes a chat message: payment notices, nicknames and confirmations
func (e *Engine) HandleMessage(ctx context.Context, ev models.MessageEvent) {
	const op = "orders.HandleMessage"
	log := e.log.With("op", op, "author_id", ev.AuthorID, "chat_id", ev.ChatID)
	defer e.recoverPanic(log)

	if !e.running.Load() {
		return
	}
	if e.cfg.SelfID != 0 && ev.AuthorID == e.cfg.SelfID {
		log.Debug("own message, skipping")
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	if orderID, ok := parsePaymentNotice(text); ok {
		log = log.With("order_id", orderID)
		if !e.settings.Get().IsTrustedSender(ev.AuthorID) {
			log.Warn("payment notice from untrusted sender ignored")
			return
		}

		log.Info("payment notice detected")
		if err := e.observeOrder(ctx, log, orderID, nil); err != nil {
			log.Error("observe order", "error", err)
		}
		return
	}

	if o, ok := e.findForBuyer(ev.AuthorID, models.StatusAwaitingConfirmation); ok {
		e.handleConfirmation(ctx, log.With("order_id", o.OrderID), o.OrderID, ev.ChatID, text)
		return
	}
	if o, ok := e.findForBuyer(ev.AuthorID, models.StatusWaitingUsername); ok {
		e.handleUsername(ctx, log.With("order_id", o.OrderID), o.OrderID, ev.ChatID, text)
		return
	}

	log.Debug("no pending order for author")
}

func (e *Engine) observeOrder(ctx context.Context, log *slog.Logger, orderID string, fallback *models.OrderDetail) error {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	if _, ok := e.pending.Get(orderID); ok {
		log.Info("order already tracked, skipping")
		return nil
	}
	if e.archive != nil {
		finished, err := e.archive.IsFinished(ctx, orderID)
		if err != nil {
			log.Warn("check order history", "error", err)
		} else if finished {
			log.Info("order already finished, skipping")
			return nil
		}
	}

	detail, err := e.fetchDetail(ctx, log, orderID, fallback)
	if err != nil {
		return err
	}

	settings := e.settings.Get()
	amount, label := quote(detail, settings.CoinsPerUnit)

	rec := detail.Record()
	if existing, ok := e.ledger.Get(orderID); ok {
		if existing.Backfill(rec) {
			e.saveRecord(log, existing)
		}
		rec = existing
	} else {
		e.saveRecord(log, rec)
	}

	o := models.PendingOrder{
		OrderID:  orderID,
		Amount:   amount,
		LotTitle: label,
		Price:    detail.Price,
		Date:     e.now(),
		Status:   models.StatusWaitingUsername,
	}
	e.savePending(log, o)

	log.Info("order added to pending",
		"amount", amount,
		"buyer_id", rec.BuyerID,
		"chat_id", rec.ChatID,
	)

	if rec.ChatID == "" {
		log.Warn("no chat for order, buyer not prompted")
		return nil
	}
	e.sendBuyer(ctx, log, rec.ChatID, settings.Messages.AfterPayment)
	return nil
}

func (e *Engine) fetchDetail(ctx context.Context, log *slog.Logger, orderID string, fallback *models.OrderDetail) (models.OrderDetail, error) {
	if e.fetcher == nil {
		if fallback == nil {
			return models.OrderDetail{}, fmt.Errorf("no source for order %s", orderID)
		}
		return *fallback, nil
	}

	d, err := e.fetcher.GetOrder(ctx, orderID)
	if err != nil {
		if fallback == nil {
			return models.OrderDetail{}, fmt.Errorf("fetch order %s: %w", orderID, err)
		}
		log.Warn("fetch full order, using event data", "error", err)
		return *fallback, nil
	}

	d.OrderID = orderID
	if fallback != nil {
		d = mergeDetail(d, *fallback)
	}
	return d, nil
}

func mergeDetail(d, fb models.OrderDetail) models.OrderDetail {
	if d.BuyerID == 0 {
		d.BuyerID = fb.BuyerID
	}
	if d.ChatID == "" {
		d.ChatID = fb.ChatID
	}
	if d.Description == "" {
		d.Description = fb.Description
	}
	if d.Quantity <= 0 {
		d.Quantity = fb.Quantity
	}
	if d.Price == 0 {
		d.Price = fb.Price
	}
	return d
}

// findForBuyer returns the oldest order in status that belongs to buyerID
func (e *Engine) findForBuyer(buyerID int64, status models.Status) (models.PendingOrder, bool) {
	for _, o := range e.pending.List() {
		if o.Status != status {
			continue
		}
		rec, ok := e.ledger.Get(o.OrderID)
		if ok && rec.BuyerID == buyerID {
			return o, true
		}
	}
	return models.PendingOrder{}, false
}

func (e *Engine) handleUsername(ctx context.Context, log *slog.Logger, orderID, chatID, text string) {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	o, ok := e.pending.Get(orderID)
	if !ok || !o.WaitingForUsername() {
		log.Info("order no longer waits for a username")
		return
	}

	o.ProposedUsername = text
	o.Status = models.StatusAwaitingConfirmation
	e.savePending(log, o)

	log.Info("username proposed", "username", text)
	e.sendBuyer(ctx, log, e.chatFor(orderID, chatID), fmt.Sprintf(msgConfirmUsername, text))
}

func (e *Engine) handleConfirmation(ctx context.Context, log *slog.Logger, orderID, chatID, text string) {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	o, ok := e.pending.Get(orderID)
	if !ok || !o.WaitingForConfirmation() {
		log.Info("order no longer waits for confirmation")
		return
	}
	chatID = e.chatFor(orderID, chatID)

	switch classifyReply(text) {
	case replyYes:
		if o.ProposedUsername == "" {
			o.Status = models.StatusWaitingUsername
			e.savePending(log, o)
			log.Warn("confirmation without proposed username")
			e.sendBuyer(ctx, log, chatID, msgNoProposed)
			return
		}

		o.MinecraftUsername = o.ProposedUsername
		o.ProposedUsername = ""
		o.Status = models.StatusReadyForAdmin
		e.savePending(log, o)
		log.Info("username confirmed", "username", o.MinecraftUsername)

		s := e.settings.Get()
		if s.AutoGiveCurrency && s.MinecraftBot.Enabled {
			e.sendBuyer(ctx, log, chatID, notify.Render(s.Messages.Processing, o.OrderID, o.Amount, o.MinecraftUsername))
			if _, err := e.startDelivery(ctx, o); err != nil {
				log.Error("start delivery", "error", err)
			}
			return
		}

		e.sendBuyer(ctx, log, chatID, msgConfirmedManual)
		e.sendAdmin(ctx, log, newOrderNotice(o))

	case replyNo:
		o.ProposedUsername = ""
		o.Status = models.StatusWaitingUsername
		e.savePending(log, o)
		log.Info("username rejected by buyer")
		e.sendBuyer(ctx, log, chatID, msgEnterUsername)

	default:
		e.sendBuyer(ctx, log, chatID, msgConfirmPrompt)
	}
}

// --- Delivery ---

// AutoComplete starts a background delivery for a ready order
func (e *Engine) AutoComplete(ctx context.Context, orderID string) (*Task, error) {
	unlock := e.locks.Lock(orderID)
	defer unlock()

	o, ok := e.pending.Get(orderID)
	if !ok {
		return nil, ErrNotFound
	}
	return e.startDelivery(ctx, o)
}

// startDelivery must be called with the order lock held
func (e *Engine) startDelivery(ctx context.Context, o models.PendingOrder) (*Task, error) {
	if o.Status != models.StatusReadyForAdmin {
		return nil, ErrNotReady
	}
	if !deliverable(o) {
		return nil, ErrNoUsername
	}
	if !e.claim(o.OrderID) {
		return nil, ErrDeliveryInFlight
	}

	task := newTask(o.OrderID)
	bg := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		out := e.deliverOrder(bg, o.OrderID, o.MinecraftUsername, o.Amount)
		e.release(o.OrderID)
		task.finish(out)
	}()

	e.log.Info("delivery started", "order_id", o.OrderID, "task_id", task.ID)
	return task, nil
}

// deliverOrder runs the transfer and applies its result. The caller owns the in-flight claim.
func (e *Engine) deliverOrder(ctx context.Context, orderID, username string, amount int64) (out Outcome) {
	log := e.log.With("op", "orders.deliverOrder", "order_id", orderID, "username", username, "amount", amount)
	out = Outcome{OrderID: orderID, Username: username, Amount: amount}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during delivery", "panic", r, "stack", string(debug.Stack()))
			out.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	out.Result = e.deliverer.Deliver(ctx, username, amount)

	unlock := e.locks.Lock(orderID)
	defer unlock()

	if !out.Result.Success {
		log.Error("automatic delivery failed",
			"error_kind", out.Result.ErrorKind,
			"message", out.Result.Message,
		)
		e.sendAdmin(ctx, log, deliveryFailedNotice(orderID, username, amount, out.Result))
		return out
	}

	if o, ok := e.pending.Get(orderID); ok {
		o.MarkCompleted(e.now(), completedByAuto, true)
		e.finish(ctx, log, o)
		out.Completed = true
	} else {
		log.Warn("delivered order is no longer pending")
	}

	rec, _ := e.ledger.Get(orderID)
	if rec.ChatID != "" {
		s := e.settings.Get()
		e.sendBuyer(ctx, log, rec.ChatID, notify.Render(s.Messages.Completed, orderID, amount, username)+msgAutoNote)
	}

	log.Info("order completed automatically")
	return out
}

// DeliverAllReady re-runs delivery for every ready order one after another
func (e *Engine) DeliverAllReady(ctx context.Context) (*Batch, error) {
	var ids []string
	for _, o := range e.pending.List() {
		if deliverable(o) && !e.isInFlight(o.OrderID) {
			ids = append(ids, o.OrderID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNothingReady
	}

	batch := newBatch(ids)
	bg := context.WithoutCancel(ctx)
	log := e.log.With("op", "orders.DeliverAllReady", "batch_id", batch.ID)
	log.Info("bulk delivery started", "orders", len(ids))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		var sum Summary
		for i, id := range ids {
			if i > 0 {
				_ = sleepCtx(bg, e.cfg.BatchDelay)
			}

			out, err := e.claimAndDeliver(bg, id)
			if err != nil {
				log.Info("order skipped", "order_id", id, "reason", err)
				continue
			}

			sum.Processed++
			if out.Result.Success && out.Err == nil {
				sum.Succeeded++
			} else {
				sum.Failed++
			}
			sum.Outcomes = append(sum.Outcomes, out)
		}

		log.Info("bulk delivery finished",
			"processed", sum.Processed,
			"succeeded", sum.Succeeded,
			"failed", sum.Failed,
		)
		e.sendAdmin(bg, log, batchReport(sum))
		batch.finish(sum)
	}()

	return batch, nil
}

func (e *Engine) claimAndDeliver(ctx context.Context, orderID string) (Outcome, error) {
	unlock := e.locks.Lock(orderID)
	o, ok := e.pending.Get(orderID)
	switch {
	case !ok:
		unlock()
		return Outcome{}, ErrNotFound
	case !deliverable(o):
		unlock()
		return Outcome{}, ErrNotReady
	case !e.claim(orderID):
		unlock()
		return Outcome{}, ErrDeliveryInFlight
	}
	unlock()

	defer e.release(orderID)
	return e.deliverOrder(ctx, orderID, o.MinecraftUsername, o.Amount), nil
}

// TestDelivery sends a small fixed amount to the configured test player
func (e *Engine) TestDelivery(ctx context.Context) (*Task, error) {
	username := e.settings.Get().MinecraftBot.TestUsername
	if username == "" {
		return nil, ErrNoUsername
	}

	task := newTask("")
	bg := context.WithoutCancel(ctx)
	amount := e.cfg.TestAmount

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		out := Outcome{Username: username, Amount: amount}
		out.Result, out.Err = e.safeDeliver(bg, username, amount)
		e.log.Info("test delivery finished",
			"username", username,
			"success", out.Result.Success,
			"message", out.Result.Message,
		)
		task.finish(out)
	}()

	return task, nil
}

// Probe checks that the delivery bot can reach the game server
func (e *Engine) Probe(ctx context.Context) delivery.ProbeResult {
	return e.deliverer.Probe(ctx)
}

func (e *Engine) safeDeliver(ctx context.Context, username string, amount int64) (res delivery.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic during delivery", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.deliverer.Deliver(ctx, username, amount), nil
}

// --- Administrator operations ---

// Complete marks an order as delivered by hand
func (e *Engine) Complete(ctx context.Context, orderID, by string) (models.PendingOrder, error) {
	log := e.log.With("op", "orders.Complete", "order_id", orderID, "by", by)

	unlock := e.locks.Lock(orderID)
	defer unlock()

	if e.isInFlight(orderID) {
		return models.PendingOrder{}, ErrDeliveryInFlight
	}
	o, ok := e.pending.Get(orderID)
	if !ok {
		return models.PendingOrder{}, ErrNotFound
	}

	o.MarkCompleted(e.now(), by, false)
	e.finish(ctx, log, o)

	if rec, ok := e.ledger.Get(orderID); ok && rec.ChatID != "" {
		s := e.settings.Get()
		e.sendBuyer(ctx, log, rec.ChatID, notify.Render(s.Messages.Completed, orderID, o.Amount, o.MinecraftUsername))
	}

	log.Info("order completed by administrator")
	return o, nil
}

// Cancel drops an order that has not been delivered
func (e *Engine) Cancel(ctx context.Context, orderID, by string) (models.PendingOrder, error) {
	log := e.log.With("op", "orders.Cancel", "order_id", orderID, "by", by)

	unlock := e.locks.Lock(orderID)
	defer unlock()

	if e.isInFlight(orderID) {
		return models.PendingOrder{}, ErrDeliveryInFlight
	}
	o, ok := e.pending.Get(orderID)
	if !ok {
		return models.PendingOrder{}, ErrNotFound
	}

	o.MarkCancelled(e.now(), by)
	e.finish(ctx, log, o)

	if rec, ok := e.ledger.Get(orderID); ok && rec.ChatID != "" {
		e.sendBuyer(ctx, log, rec.ChatID, fmt.Sprintf(msgCancelled, orderID))
	}

	log.Info("order cancelled by administrator")
	return o, nil
}

// ClearStats reports how many entries a bulk clear removed
type ClearStats struct {
	Pending int
	Records int
}

// ClearAll empties both tables. Deliveries already running are not interrupted.
func (e *Engine) ClearAll() (ClearStats, error) {
	stats := ClearStats{
		Pending: len(e.pending.List()),
		Records: len(e.ledger.List()),
	}

	var errs []error
	if err := e.pending.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear pending orders: %w", err))
	}
	if err := e.ledger.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear order ledger: %w", err))
	}

	e.log.Info("all orders cleared", "pending", stats.Pending, "records", stats.Records)
	return stats, errors.Join(errs...)
}

// Start reloads both tables and resumes event handling
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := e.ledger.Reload(); err != nil {
		e.log.Error("reload order ledger", "error", err)
	}
	if err := e.pending.Reload(); err != nil {
		e.log.Error("reload pending orders", "error", err)
	}

	e.log.Info("engine started",
		"records", len(e.ledger.List()),
		"pending", len(e.pending.List()),
	)
	return nil
}

// Stop pauses event handling. Background deliveries keep running.
func (e *Engine) Stop() error {
	if !e.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	e.log.Info("engine stopped")
	return nil
}

// Running reports whether inbound events are processed
func (e *Engine) Running() bool {
	return e.running.Load()
}

// ToggleAutoDelivery flips automatic delivery. Turning it on starts a batch for ready orders,
// the returned batch is nil when there was nothing to deliver.
func (e *Engine) ToggleAutoDelivery(ctx context.Context) (bool, *Batch, error) {
	s, err := e.settings.Update(func(s *models.Settings) {
		s.AutoGiveCurrency = !s.AutoGiveCurrency
	})
	if err != nil {
		return false, nil, fmt.Errorf("toggle auto delivery: %w", err)
	}

	e.log.Info("auto delivery toggled", "enabled", s.AutoGiveCurrency)
	if !s.AutoGiveCurrency {
		return false, nil, nil
	}

	batch, err := e.DeliverAllReady(ctx)
	if errors.Is(err, ErrNothingReady) {
		return true, nil, nil
	}
	return true, batch, err
}

// Pending lists the tracked orders, oldest first
func (e *Engine) Pending() []models.PendingOrder {
	return e.pending.List()
}

// Record returns the ledger entry of an order
func (e *Engine) Record(orderID string) (models.OrderRecord, bool) {
	return e.ledger.Get(orderID)
}

// InFlight reports whether a delivery for the order is running
func (e *Engine) InFlight(orderID string) bool {
	return e.isInFlight(orderID)
}

// Wait blocks until all background deliveries finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// --- Helpers ---

// finish archives a terminal order and removes it from the pending table
func (e *Engine) finish(ctx context.Context, log *slog.Logger, o models.PendingOrder) {
	if e.archive != nil {
		rec, _ := e.ledger.Get(o.OrderID)
		if err := e.archive.RecordFinished(ctx, o, rec); err != nil {
			log.Error("archive order", "error", err)
		}
	}
	if err := e.pending.Delete(o.OrderID); err != nil {
		log.Error("delete pending order", "error", err)
	}
}

func (e *Engine) claim(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inFlight[orderID]; ok {
		return false
	}
	e.inFlight[orderID] = struct{}{}
	return true
}

func (e *Engine) release(orderID string) {
	e.mu.Lock()
	delete(e.inFlight, orderID)
	e.mu.Unlock()
}

func (e *Engine) isInFlight(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[orderID]
	return ok
}

func (e *Engine) chatFor(orderID, fallback string) string {
	if rec, ok := e.ledger.Get(orderID); ok && rec.ChatID != "" {
		return rec.ChatID
	}
	return fallback
}

func (e *Engine) savePending(log *slog.Logger, o models.PendingOrder) {
	if err := e.pending.Put(o); err != nil {
		log.Error("save pending order", "error", err)
	}
}

func (e *Engine) saveRecord(log *slog.Logger, r models.OrderRecord) {
	if err := e.ledger.Put(r); err != nil {
		log.Error("save order record", "error", err)
	}
}

func (e *Engine) sendBuyer(ctx context.Context, log *slog.Logger, chatID, text string) {
	if err := e.notifier.NotifyBuyer(ctx, chatID, text); err != nil {
		log.Error("notify buyer", "chat_id", chatID, "error", err)
	}
}

func (e *Engine) sendAdmin(ctx context.Context, log *slog.Logger, text string) {
	if err := e.notifier.NotifyAdmin(ctx, text); err != nil {
		log.Error("notify admin", "error", err)
	}
}

func (e *Engine) recoverPanic(log *slog.Logger) {
	if r := recover(); r != nil {
		log.Error("panic in event handler", "panic", r, "stack", string(debug.Stack()))
	}
}
