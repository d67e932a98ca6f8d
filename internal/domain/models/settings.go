package models

// Settings holds the tunable parameters edited by administrators at runtime
type Settings struct {
	AutoStart             bool         `json:"auto_start"`
	NotificationChatID    int64        `json:"notification_chat_id"`
	CoinsPerUnit          int64        `json:"coins_per_unit" validate:"gte=1"`
	TrustedPaymentSenders []int64      `json:"trusted_payment_senders"`
	Messages              Messages     `json:"messages"`
	AdminNotifications    bool         `json:"admin_notifications"`
	AutoGiveCurrency      bool         `json:"auto_give_currency"`
	MinecraftBot          MinecraftBot `json:"minecraft_bot"`
}

// Messages are the buyer-facing templates. {order_id}, {amount} and {username} are substituted.
type Messages struct {
	AfterPayment string `json:"after_payment" validate:"max=1000"`
	Processing   string `json:"processing" validate:"max=1000"`
	Completed    string `json:"completed" validate:"max=1000"`
}

// MinecraftBot holds the delivery account and server the delivery script logs into
type MinecraftBot struct {
	Enabled      bool   `json:"enabled"`
	BotUsername  string `json:"bot_username"`
	Password     string `json:"password"`
	Server       string `json:"server" validate:"required"`
	Port         int    `json:"port" validate:"gte=1,lte=65535"`
	Anarchy      string `json:"anarchy"`
	TestUsername string `json:"test_username"`
}

// DefaultSettings returns the settings written when no settings file exists
func DefaultSettings() Settings {
	return Settings{
		AutoStart:             true,
		CoinsPerUnit:          1_000_000,
		TrustedPaymentSenders: []int64{0},
		Messages: Messages{
			AfterPayment: "💰 Спасибо за покупку!\n\n" +
				"✅Ваш заказ принят и будет конвертирован в валюту Minecraft.\n" +
				"➗Укажите ваш никнейм в Minecraft для выдачи валюты.\n\n" +
				"Пример: Steve",
			Processing: "⏳ Ваш заказ #{order_id} принят в обработку!\n" +
				"Сумма: {amount} монет\n" +
				"Никнейм: {username}\n\n" +
				"🤖 Бот сейчас подключится к серверу и переведет вам валюту автоматически!\n" +
				"Ожидайте 1-2 минуты...",
			Completed: "✅ Валюта успешно переведена!\n" +
				"Заказ #{order_id} выполнен.\n" +
				"Переведено {amount} монет игроку {username}\n\n" +
				"Спасибо за покупку! 🎮",
		},
		AdminNotifications: true,
		AutoGiveCurrency:   true,
		MinecraftBot: MinecraftBot{
			Enabled:      true,
			BotUsername:  "Bot",
			Password:     "password",
			Server:       "funtime.su",
			Port:         25565,
			Anarchy:      "an210",
			TestUsername: "Test_user",
		},
	}
}

// IsTrustedSender reports whether id may emit payment notifications
func (s Settings) IsTrustedSender(id int64) bool {
	for _, t := range s.TrustedPaymentSenders {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	c := s
	c.TrustedPaymentSenders = append([]int64(nil), s.TrustedPaymentSenders...)
	return c
}
