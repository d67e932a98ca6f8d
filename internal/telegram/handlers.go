package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/suspectuso/mc-currency/internal/config"
	"github.com/suspectuso/mc-currency/internal/delivery"
	domain "github.com/suspectuso/mc-currency/internal/domain/models"
	"github.com/suspectuso/mc-currency/internal/notify"
	"github.com/suspectuso/mc-currency/internal/orders"
	"github.com/suspectuso/mc-currency/internal/storage"
)

const historyLimit = 15

// Engine is the order lifecycle the administrator drives
type Engine interface {
	Start() error
	Stop() error
	Running() bool
	Pending() []domain.PendingOrder
	ClearAll() (orders.ClearStats, error)
	ToggleAutoDelivery(ctx context.Context) (bool, *orders.Batch, error)
	DeliverAllReady(ctx context.Context) (*orders.Batch, error)
	AutoComplete(ctx context.Context, orderID string) (*orders.Task, error)
	Complete(ctx context.Context, orderID, by string) (domain.PendingOrder, error)
	Cancel(ctx context.Context, orderID, by string) (domain.PendingOrder, error)
	TestDelivery(ctx context.Context) (*orders.Task, error)
	Probe(ctx context.Context) delivery.ProbeResult
}

// SettingsStore reads and edits the runtime settings
type SettingsStore interface {
	Get() domain.Settings
	Update(fn func(*domain.Settings)) (domain.Settings, error)
}

// HistorySource lists finished orders
type HistorySource interface {
	ListHistory(ctx context.Context, limit int) ([]storage.HistoryEntry, error)
}

// Bot wraps the telegram bot with the administrator commands
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	engine   Engine
	settings SettingsStore
	history  HistorySource
	states   *StateManager
	log      *slog.Logger
}

// New creates a new telegram bot. history may be nil.
func New(cfg *config.Config, engine Engine, settings SettingsStore, history HistorySource, log *slog.Logger) (*Bot, error) {
	b := &Bot{
		cfg:      cfg,
		engine:   engine,
		settings: settings,
		history:  history,
		states:   NewStateManager(),
		log:      log,
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.adminOnly),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot

	// Register command handlers
	commands := map[string]bot.HandlerFunc{
		"/mc_start":       b.startHandler,
		"/mc_stop":        b.stopHandler,
		"/mc_pending":     b.pendingHandler,
		"/mc_clear":       b.clearHandler,
		"/mc_toggle_auto": b.toggleAutoHandler,
		"/mc_process_all": b.processAllHandler,
		"/mc_force_auto":  b.forceAutoHandler,
		"/mc_test_bot":    b.testBotHandler,
		"/mc_test_pay":    b.testPayHandler,
		"/mc_settings":    b.settingsHandler,
		"/mc_history":     b.historyHandler,
	}
	for cmd, h := range commands {
		tgBot.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypeExact, h)
	}
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/complete_", bot.MatchTypePrefix, b.completeHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/auto_", bot.MatchTypePrefix, b.autoHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel_", bot.MatchTypePrefix, b.cancelHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// adminOnly drops updates from users outside ADMIN_IDS
func (b *Bot) adminOnly(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		var from *models.User
		switch {
		case update.Message != nil:
			from = update.Message.From
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
		}

		if from == nil || !b.cfg.IsAdmin(from.ID) {
			if from != nil {
				b.log.Debug("ignoring update from non-admin", "user_id", from.ID)
			}
			return
		}
		next(ctx, tgBot, update)
	}
}

// --- Commands ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := b.engine.Start(); err != nil {
		if errors.Is(err, orders.ErrAlreadyRunning) {
			b.sendMessage(ctx, chatID, "ℹ️ Выдача валюты уже запущена.", nil)
			return
		}
		b.log.Error("start engine", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось запустить выдачу валюты.", nil)
		return
	}

	text := fmt.Sprintf("✅ <b>Выдача валюты запущена!</b>\n\nЗаказов в ожидании: <b>%d</b>", len(b.engine.Pending()))
	b.sendMessage(ctx, chatID, text, nil)
}

func (b *Bot) stopHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := b.engine.Stop(); errors.Is(err, orders.ErrNotRunning) {
		b.sendMessage(ctx, chatID, "ℹ️ Выдача валюты уже остановлена.", nil)
		return
	}
	b.sendMessage(ctx, chatID, "⏹ <b>Выдача валюты остановлена.</b>\nЗапущенные выдачи будут завершены.", nil)
}

func (b *Bot) pendingHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	list := b.engine.Pending()
	b.sendMessage(ctx, update.Message.Chat.ID, formatPending(list), PendingKeyboard(list))
}

func (b *Bot) clearHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	stats, err := b.engine.ClearAll()
	if err != nil {
		b.log.Error("clear orders", "error", err)
		b.sendMessage(ctx, chatID, "⚠️ Заказы очищены, но сохранить файлы не удалось. Проверьте логи.", nil)
		return
	}

	text := fmt.Sprintf("🗑 <b>Все заказы очищены</b>\n\n• Ожидающих: %d\n• Записей: %d", stats.Pending, stats.Records)
	b.sendMessage(ctx, chatID, text, nil)
}

func (b *Bot) toggleAutoHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	enabled, batch, err := b.engine.ToggleAutoDelivery(ctx)
	if err != nil {
		b.log.Error("toggle auto delivery", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось сохранить настройку.", nil)
		return
	}

	if !enabled {
		b.sendMessage(ctx, chatID, "❌ <b>Автовыдача отключена.</b>\nГотовые заказы будут ждать ручной выдачи.", nil)
		return
	}

	text := "✅ <b>Автовыдача включена!</b>"
	if batch != nil {
		text += fmt.Sprintf("\n\n🤖 Запущена выдача для %d готовых заказов.", len(batch.OrderIDs))
	}
	b.sendMessage(ctx, chatID, text, nil)
}

func (b *Bot) processAllHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	batch, err := b.engine.DeliverAllReady(ctx)
	if errors.Is(err, orders.ErrNothingReady) {
		b.sendMessage(ctx, chatID, "📭 Нет заказов, готовых к автовыдаче.", nil)
		return
	}
	if err != nil {
		b.log.Error("deliver all ready", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось запустить автовыдачу.", nil)
		return
	}

	b.sendMessage(ctx, chatID,
		fmt.Sprintf("🤖 Запущена автовыдача для <b>%d</b> заказов.\nОтчёт придёт после завершения.", len(batch.OrderIDs)),
		nil,
	)
}

func (b *Bot) forceAutoHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	batch, err := b.engine.DeliverAllReady(ctx)
	if errors.Is(err, orders.ErrNothingReady) {
		b.sendMessage(ctx, chatID, "❌ Нет заказов готовых к автовыдаче", nil)
		return
	}
	if err != nil {
		b.log.Error("force auto delivery", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось запустить автовыдачу.", nil)
		return
	}

	ids := make([]string, 0, len(batch.OrderIDs))
	for _, id := range batch.OrderIDs {
		ids = append(ids, "#"+html.EscapeString(id))
	}
	b.sendMessage(ctx, chatID,
		"🔧 Принудительная автовыдача для заказов: "+strings.Join(ids, ", "),
		nil,
	)

	go func() {
		sum, err := batch.Wait(ctx)
		if err != nil {
			return
		}
		settings := b.settings.Get()
		for _, out := range sum.Outcomes {
			if text, ok := outcomeReply(out, settings, chatID); ok {
				b.sendMessage(ctx, chatID, text, nil)
			}
		}
	}()
}

func (b *Bot) testBotHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	b.sendMessage(ctx, chatID, "🤖 Тестируем подключение Minecraft бота...", nil)

	go func() {
		res := b.engine.Probe(ctx)
		if res.Connected {
			b.sendMessage(ctx, chatID, "✅ Minecraft бот успешно подключается к серверу!", nil)
			return
		}
		b.sendMessage(ctx, chatID,
			"❌ Ошибка подключения Minecraft бота: "+html.EscapeString(res.Message)+"\nПроверьте настройки (/mc_settings).",
			nil,
		)
	}()
}

func (b *Bot) testPayHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	task, err := b.engine.TestDelivery(ctx)
	if errors.Is(err, orders.ErrNoUsername) {
		b.sendMessage(ctx, chatID, "❌ Тестовый никнейм не указан. Задайте его в /mc_settings.", nil)
		return
	}
	if err != nil {
		b.log.Error("test delivery", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось запустить тестовый перевод.", nil)
		return
	}

	username := b.settings.Get().MinecraftBot.TestUsername
	b.sendMessage(ctx, chatID, fmt.Sprintf("🧪 Тестируем перевод монет игроку <code>%s</code>...", html.EscapeString(username)), nil)

	go func() {
		out, err := task.Wait(ctx)
		if err != nil {
			return
		}
		if out.Err == nil && out.Result.Success {
			b.sendMessage(ctx, chatID, fmt.Sprintf(
				"✅ <b>ТЕСТОВЫЙ ПЕРЕВОД УСПЕШЕН!</b>\n\n🎯 Игрок: <code>%s</code>\n💰 Сумма: %s монет\n\n✨ %s",
				html.EscapeString(out.Username), notify.FormatAmount(out.Amount), html.EscapeString(out.Result.Message),
			), nil)
			return
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf(
			"❌ <b>ОШИБКА ТЕСТОВОГО ПЕРЕВОДА</b>\n\n🎯 Игрок: <code>%s</code>\n💰 Сумма: %s монет\n\n⚠️ Ошибка: %s\n\n"+
				"🔧 Проверьте подключение к серверу (/mc_test_bot) и что игрок онлайн.",
			html.EscapeString(out.Username), notify.FormatAmount(out.Amount), html.EscapeString(failureReason(out)),
		), nil)
	}()
}

func (b *Bot) settingsHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	b.states.Clear(update.Message.From.ID)
	b.sendMessage(ctx, update.Message.Chat.ID, formatSettings(b.settings.Get(), b.engine.Running()), SettingsKeyboard())
}

func (b *Bot) historyHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if b.history == nil {
		b.sendMessage(ctx, chatID, "ℹ️ История заказов не ведётся.", nil)
		return
	}

	entries, err := b.history.ListHistory(ctx, historyLimit)
	if err != nil {
		b.log.Error("list history", "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось загрузить историю.", nil)
		return
	}
	b.sendMessage(ctx, chatID, formatHistory(entries), nil)
}

func (b *Bot) completeHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.complete(ctx, update.Message.Chat.ID, update.Message.From, commandArg(update.Message.Text, "/complete_"))
}

func (b *Bot) autoHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.autoComplete(ctx, update.Message.Chat.ID, commandArg(update.Message.Text, "/auto_"))
}

func (b *Bot) cancelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.cancel(ctx, update.Message.Chat.ID, update.Message.From, commandArg(update.Message.Text, "/cancel_"))
}

// --- Order actions ---

func (b *Bot) complete(ctx context.Context, chatID int64, from *models.User, orderID string) {
	o, err := b.engine.Complete(ctx, orderID, adminName(from))
	if err != nil {
		b.sendMessage(ctx, chatID, orderErrorText(orderID, err), nil)
		return
	}

	b.sendMessage(ctx, chatID, fmt.Sprintf(
		"✅ Заказ <b>#%s</b> выполнен.\n💎 %s монет → <code>%s</code>",
		html.EscapeString(o.OrderID), notify.FormatAmount(o.Amount), html.EscapeString(o.MinecraftUsername),
	), nil)
}

func (b *Bot) cancel(ctx context.Context, chatID int64, from *models.User, orderID string) {
	o, err := b.engine.Cancel(ctx, orderID, adminName(from))
	if err != nil {
		b.sendMessage(ctx, chatID, orderErrorText(orderID, err), nil)
		return
	}

	b.sendMessage(ctx, chatID, fmt.Sprintf("❌ Заказ <b>#%s</b> отменён. Покупатель уведомлён.", html.EscapeString(o.OrderID)), nil)
}

func (b *Bot) autoComplete(ctx context.Context, chatID int64, orderID string) {
	task, err := b.engine.AutoComplete(ctx, orderID)
	if err != nil {
		b.sendMessage(ctx, chatID, orderErrorText(orderID, err), nil)
		return
	}

	b.sendMessage(ctx, chatID, fmt.Sprintf("🤖 Запускаем автоматическую выдачу для заказа <b>#%s</b>...", html.EscapeString(orderID)), nil)

	go func() {
		out, err := task.Wait(ctx)
		if err != nil {
			return
		}
		if text, ok := outcomeReply(out, b.settings.Get(), chatID); ok {
			b.sendMessage(ctx, chatID, text, nil)
		}
	}()
}

func orderErrorText(orderID string, err error) string {
	id := html.EscapeString(orderID)
	switch {
	case orderID == "":
		return "❌ Укажите номер заказа, например /complete_A100"
	case errors.Is(err, orders.ErrNotFound):
		return fmt.Sprintf("❌ Заказ #%s не найден в ожидающих.", id)
	case errors.Is(err, orders.ErrDeliveryInFlight):
		return fmt.Sprintf("⏳ Для заказа #%s уже идёт автовыдача, дождитесь результата.", id)
	case errors.Is(err, orders.ErrNotReady):
		return fmt.Sprintf("❌ Покупатель ещё не подтвердил никнейм для заказа #%s.", id)
	case errors.Is(err, orders.ErrNoUsername):
		return fmt.Sprintf("❌ Для заказа #%s не указан никнейм Minecraft.", id)
	}
	return fmt.Sprintf("❌ Ошибка обработки заказа #%s: %s", id, html.EscapeString(err.Error()))
}

// outcomeReply answers the admin who started a delivery. A failed delivery is
// already reported by the engine to the notification chat, so that chat gets no second message.
func outcomeReply(out orders.Outcome, s domain.Settings, chatID int64) (string, bool) {
	reported := out.Err == nil && !out.Result.Success
	if reported && s.AdminNotifications && s.NotificationChatID == chatID {
		return "", false
	}
	return outcomeText(out), true
}

func outcomeText(out orders.Outcome) string {
	id := html.EscapeString(out.OrderID)
	switch {
	case out.Completed:
		return fmt.Sprintf("✅ Заказ #%s успешно выполнен! %s монет → <code>%s</code>",
			id, notify.FormatAmount(out.Amount), html.EscapeString(out.Username))
	case out.Err == nil && out.Result.Success:
		return fmt.Sprintf("✅ Валюта по заказу #%s выдана: %s монет → <code>%s</code>. Заказ уже не числился в ожидающих.",
			id, notify.FormatAmount(out.Amount), html.EscapeString(out.Username))
	}
	return fmt.Sprintf("❌ Ошибка выполнения заказа #%s: %s", id, html.EscapeString(failureReason(out)))
}

func failureReason(out orders.Outcome) string {
	if out.Err != nil {
		return out.Err.Error()
	}
	msg := out.Result.Message
	if msg == "" {
		msg = "неизвестная ошибка"
	}
	if out.Result.ErrorKind != "" {
		msg += " (" + out.Result.ErrorKind + ")"
	}
	return msg
}

func adminName(u *models.User) string {
	if u == nil {
		return "admin"
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}

// --- Settings dialog ---

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	state := b.states.Get(userID)
	if state == nil {
		return
	}

	if strings.EqualFold(text, "/cancel") || strings.EqualFold(text, "отмена") {
		b.states.Clear(userID)
		b.sendMessage(ctx, chatID, "↩️ Изменение отменено.", BackKeyboard())
		return
	}

	field, _ := state.Data["field"].(string)
	fn, err := settingUpdate(field, text)
	if err != nil {
		b.sendMessage(ctx, chatID, "❌ "+html.EscapeString(err.Error())+"\nПопробуйте ещё раз или отправьте «отмена».", nil)
		return
	}

	b.states.Clear(userID)
	if _, err := b.settings.Update(fn); err != nil {
		b.log.Error("update settings", "field", field, "error", err)
		b.sendMessage(ctx, chatID, "❌ Не удалось сохранить: "+html.EscapeString(err.Error()), BackKeyboard())
		return
	}

	b.log.Info("settings updated", "field", field, "user_id", userID)
	b.sendMessage(ctx, chatID, "✅ Настройка сохранена!", BackKeyboard())
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	userID := cb.From.ID
	data := cb.Data

	if data == "show_password" {
		tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cb.ID,
			Text:            "Пароль: " + b.settings.Get().MinecraftBot.Password,
			ShowAlert:       true,
		})
		return
	}

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch {
	case data == "settings":
		b.states.Clear(userID)
		b.editMessage(ctx, cb.Message, formatSettings(b.settings.Get(), b.engine.Running()), SettingsKeyboard())
	case data == "set_bot":
		s := b.settings.Get()
		b.editMessage(ctx, cb.Message, formatBotSettings(s), BotSettingsKeyboard(s))
	case data == "set_msg":
		b.editMessage(ctx, cb.Message, formatMessages(b.settings.Get()), MessagesKeyboard())
	case data == "set_general":
		s := b.settings.Get()
		b.editMessage(ctx, cb.Message, formatGeneral(s), GeneralSettingsKeyboard(s))
	case data == "pending":
		list := b.engine.Pending()
		b.editMessage(ctx, cb.Message, formatPending(list), PendingKeyboard(list))
	case strings.HasPrefix(data, "edit:"):
		b.handleEdit(ctx, cb, strings.TrimPrefix(data, "edit:"))
	case strings.HasPrefix(data, "toggle:"):
		b.handleToggle(ctx, cb, strings.TrimPrefix(data, "toggle:"))
	case strings.HasPrefix(data, "complete:"):
		b.complete(ctx, chatOf(cb), &cb.From, strings.TrimPrefix(data, "complete:"))
	case strings.HasPrefix(data, "auto:"):
		b.autoComplete(ctx, chatOf(cb), strings.TrimPrefix(data, "auto:"))
	case strings.HasPrefix(data, "cancel:"):
		b.cancel(ctx, chatOf(cb), &cb.From, strings.TrimPrefix(data, "cancel:"))
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", userID)
	}
}

func (b *Bot) handleEdit(ctx context.Context, cb *models.CallbackQuery, field string) {
	f, ok := editFields[field]
	if !ok {
		b.log.Warn("unknown settings field", "field", field)
		return
	}

	b.states.Set(cb.From.ID, f.state, map[string]interface{}{
		"field": field,
	})
	b.editMessage(ctx, cb.Message, f.prompt+"\n\nОтправьте «отмена» чтобы выйти.", BackKeyboard())
}

func (b *Bot) handleToggle(ctx context.Context, cb *models.CallbackQuery, flag string) {
	fn, err := toggleUpdate(flag)
	if err != nil {
		b.log.Warn("unknown toggle", "flag", flag)
		return
	}

	s, err := b.settings.Update(fn)
	if err != nil {
		b.log.Error("toggle setting", "flag", flag, "error", err)
		return
	}
	b.log.Info("setting toggled", "flag", flag, "user_id", cb.From.ID)

	// Refresh the menu the toggle lives in
	if flag == "bot_enabled" {
		b.editMessage(ctx, cb.Message, formatBotSettings(s), BotSettingsKeyboard(s))
		return
	}
	b.editMessage(ctx, cb.Message, formatGeneral(s), GeneralSettingsKeyboard(s))
}

// --- Helpers ---

func chatOf(cb *models.CallbackQuery) int64 {
	if cb.Message.Message != nil {
		return cb.Message.Message.Chat.ID
	}
	return cb.From.ID
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendNotification sends a plain text notification into a chat
func (b *Bot) SendNotification(ctx context.Context, chatID int64, text string) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}
