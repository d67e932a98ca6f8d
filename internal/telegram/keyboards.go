package telegram

import (
	"github.com/go-telegram/bot/models"
	domain "github.com/suspectuso/mc-currency/internal/domain/models"
)

func onOff(v bool) string {
	if v {
		return "✅"
	}
	return "❌"
}

// SettingsKeyboard returns the settings main menu
func SettingsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🤖 НАСТРОЙКИ БОТА", CallbackData: "set_bot"},
			},
			{
				{Text: "💬 НАСТРОЙКИ СООБЩЕНИЙ", CallbackData: "set_msg"},
			},
			{
				{Text: "🔧 ОБЩИЕ НАСТРОЙКИ", CallbackData: "set_general"},
			},
			{
				{Text: "📋 Ожидающие заказы", CallbackData: "pending"},
			},
		},
	}
}

// BotSettingsKeyboard returns the delivery bot settings menu
func BotSettingsKeyboard(s domain.Settings) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔧 Изменить никнейм", CallbackData: "edit:bot_username"},
				{Text: "🔑 Изменить пароль", CallbackData: "edit:bot_password"},
			},
			{
				{Text: "🎯 Тестовый никнейм", CallbackData: "edit:test_username"},
			},
			{
				{Text: "🌐 Изменить IP/хост сервера", CallbackData: "edit:server"},
			},
			{
				{Text: "👁️ Показать пароль", CallbackData: "show_password"},
				{Text: onOff(s.MinecraftBot.Enabled) + " Бот включен", CallbackData: "toggle:bot_enabled"},
			},
			{
				{Text: "🔙 Назад", CallbackData: "settings"},
			},
		},
	}
}

// MessagesKeyboard returns the buyer templates menu
func MessagesKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📝 После оплаты", CallbackData: "edit:" + tplAfterPayment},
				{Text: "⏳ При обработке", CallbackData: "edit:" + tplProcessing},
			},
			{
				{Text: "✅ После завершения", CallbackData: "edit:" + tplCompleted},
			},
			{
				{Text: "🔙 Назад", CallbackData: "settings"},
			},
		},
	}
}

// GeneralSettingsKeyboard returns the general settings menu
func GeneralSettingsKeyboard(s domain.Settings) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💎 Монет за единицу", CallbackData: "edit:coins_per_unit"},
			},
			{
				{Text: "📣 Чат уведомлений", CallbackData: "edit:notify_chat"},
			},
			{
				{Text: onOff(s.AutoStart) + " Автозапуск", CallbackData: "toggle:auto_start"},
				{Text: onOff(s.AdminNotifications) + " Уведомления", CallbackData: "toggle:admin_notifications"},
			},
			{
				{Text: onOff(s.AutoGiveCurrency) + " Автовыдача", CallbackData: "toggle:auto_give"},
			},
			{
				{Text: "🔙 Назад", CallbackData: "settings"},
			},
		},
	}
}

// PendingKeyboard returns action buttons for every order ready for delivery
func PendingKeyboard(orders []domain.PendingOrder) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for _, o := range orders {
		if o.Status != domain.StatusReadyForAdmin {
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "✅ #" + o.OrderID, CallbackData: "complete:" + o.OrderID},
			{Text: "🤖", CallbackData: "auto:" + o.OrderID},
			{Text: "❌", CallbackData: "cancel:" + o.OrderID},
		})
	}

	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "🔄 Обновить", CallbackData: "pending"},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// BackKeyboard returns a simple back button
func BackKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔙 Назад", CallbackData: "settings"},
			},
		},
	}
}
