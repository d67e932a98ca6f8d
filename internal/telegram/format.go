package telegram

import (
	"fmt"
	"html"
	"strings"

	domain "github.com/suspectuso/mc-currency/internal/domain/models"
	"github.com/suspectuso/mc-currency/internal/notify"
	"github.com/suspectuso/mc-currency/internal/storage"
)

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusWaitingUsername:
		return "⏳ ждёт никнейм"
	case domain.StatusAwaitingConfirmation:
		return "❓ ждёт подтверждения"
	case domain.StatusReadyForAdmin:
		return "✅ готов к выдаче"
	case domain.StatusCompleted:
		return "🎉 выполнен"
	case domain.StatusCancelled:
		return "❌ отменён"
	}
	return string(s)
}

func formatPending(orders []domain.PendingOrder) string {
	if len(orders) == 0 {
		return "📭 Нет ожидающих заказов."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Ожидающие заказы (%d):</b>\n", len(orders))
	for _, o := range orders {
		username := o.MinecraftUsername
		if username == "" {
			username = o.ProposedUsername
		}
		if username == "" {
			username = "—"
		}
		fmt.Fprintf(&b, "\n<b>#%s</b> %s\n👤 %s • 💎 %s монет • %s",
			html.EscapeString(o.OrderID),
			statusLabel(o.Status),
			html.EscapeString(username),
			notify.FormatAmount(o.Amount),
			o.Date.Format("02.01 15:04"),
		)
	}
	return b.String()
}

func formatHistory(entries []storage.HistoryEntry) string {
	if len(entries) == 0 {
		return "📭 История пуста."
	}

	var b strings.Builder
	b.WriteString("📜 <b>Последние заказы:</b>\n")
	for _, h := range entries {
		by := h.FinishedBy
		if h.AutoCompleted {
			by = "🤖"
		}
		fmt.Fprintf(&b, "\n<b>#%s</b> %s • %s • %s монет • %s (%s)",
			html.EscapeString(h.OrderID),
			statusLabel(h.Status),
			html.EscapeString(h.Username),
			notify.FormatAmount(h.Amount),
			h.FinishedAt.Format("02.01 15:04"),
			html.EscapeString(by),
		)
	}
	return b.String()
}

func formatSettings(s domain.Settings, running bool) string {
	return fmt.Sprintf(
		"⚙️ <b>НАСТРОЙКИ ВЫДАЧИ ВАЛЮТЫ</b>\n\n"+
			"Статус: %s\n"+
			"Автовыдача: %s\n"+
			"Монет за единицу: <b>%s</b>\n"+
			"Сервер: <code>%s:%d</code>\n\n"+
			"Выберите раздел 👇",
		runningLabel(running),
		onOff(s.AutoGiveCurrency),
		notify.FormatAmount(s.CoinsPerUnit),
		html.EscapeString(s.MinecraftBot.Server), s.MinecraftBot.Port,
	)
}

func formatBotSettings(s domain.Settings) string {
	return fmt.Sprintf(
		"🤖 <b>НАСТРОЙКИ MINECRAFT БОТА</b>\n\n"+
			"• Никнейм бота: <code>%s</code>\n"+
			"• Пароль бота: <code>%s</code>\n"+
			"• Тестовый никнейм: <code>%s</code>\n"+
			"• Бот включен: %s\n"+
			"• Сервер: <code>%s:%d</code>\n"+
			"• Анархия: <code>%s</code>",
		html.EscapeString(s.MinecraftBot.BotUsername),
		maskSecret(s.MinecraftBot.Password),
		html.EscapeString(s.MinecraftBot.TestUsername),
		onOff(s.MinecraftBot.Enabled),
		html.EscapeString(s.MinecraftBot.Server), s.MinecraftBot.Port,
		html.EscapeString(s.MinecraftBot.Anarchy),
	)
}

func formatMessages(s domain.Settings) string {
	return fmt.Sprintf(
		"💬 <b>НАСТРОЙКИ СООБЩЕНИЙ</b>\n\n"+
			"<b>После оплаты:</b>\n%s\n\n"+
			"<b>При обработке:</b>\n%s\n\n"+
			"<b>После завершения:</b>\n%s",
		html.EscapeString(s.Messages.AfterPayment),
		html.EscapeString(s.Messages.Processing),
		html.EscapeString(s.Messages.Completed),
	)
}

func formatGeneral(s domain.Settings) string {
	trusted := make([]string, 0, len(s.TrustedPaymentSenders))
	for _, id := range s.TrustedPaymentSenders {
		trusted = append(trusted, fmt.Sprint(id))
	}

	return fmt.Sprintf(
		"🔧 <b>ОБЩИЕ НАСТРОЙКИ</b>\n\n"+
			"• Автозапуск: %s\n"+
			"• Уведомления администратору: %s\n"+
			"• Чат уведомлений: <code>%d</code>\n"+
			"• Автовыдача: %s\n"+
			"• Монет за единицу: <b>%s</b>\n"+
			"• Доверенные отправители: <code>%s</code>",
		onOff(s.AutoStart),
		onOff(s.AdminNotifications),
		s.NotificationChatID,
		onOff(s.AutoGiveCurrency),
		notify.FormatAmount(s.CoinsPerUnit),
		strings.Join(trusted, ", "),
	)
}

func runningLabel(running bool) string {
	if running {
		return "🟢 работает"
	}
	return "🔴 остановлен"
}

func maskSecret(s string) string {
	if s == "" {
		return "не указан"
	}
	return strings.Repeat("•", 8)
}
