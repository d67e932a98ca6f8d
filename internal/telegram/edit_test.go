package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/suspectuso/mc-currency/internal/domain/models"
)

func TestSettingUpdate(t *testing.T) {
	tests := []struct {
		name  string
		field string
		input string
		check func(t *testing.T, s domain.Settings)
	}{
		{"coins", "coins_per_unit", " 2,000,000 ", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, int64(2_000_000), s.CoinsPerUnit)
		}},
		{"test username", "test_username", "Alex_01", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "Alex_01", s.MinecraftBot.TestUsername)
		}},
		{"bot username", "bot_username", "PayBot", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "PayBot", s.MinecraftBot.BotUsername)
		}},
		{"password", "bot_password", "hunter2", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "hunter2", s.MinecraftBot.Password)
		}},
		{"server without port", "server", "mc.example.net", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "mc.example.net", s.MinecraftBot.Server)
			assert.Equal(t, 25565, s.MinecraftBot.Port)
		}},
		{"server with port", "server", "mc.example.net:25577", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "mc.example.net", s.MinecraftBot.Server)
			assert.Equal(t, 25577, s.MinecraftBot.Port)
		}},
		{"notify chat", "notify_chat", "-1001234", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, int64(-1001234), s.NotificationChatID)
		}},
		{"completed template", tplCompleted, "Готово, {username}!", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "Готово, {username}!", s.Messages.Completed)
		}},
		{"after payment template", tplAfterPayment, "Напишите ник", func(t *testing.T, s domain.Settings) {
			assert.Equal(t, "Напишите ник", s.Messages.AfterPayment)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := settingUpdate(tt.field, tt.input)
			require.NoError(t, err)

			s := domain.DefaultSettings()
			fn(&s)
			tt.check(t, s)
		})
	}
}

func TestSettingUpdate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		input string
	}{
		{"empty", "coins_per_unit", "   "},
		{"zero coins", "coins_per_unit", "0"},
		{"not a number", "coins_per_unit", "many"},
		{"short nickname", "test_username", "ab"},
		{"nickname with space", "bot_username", "Pay Bot"},
		{"password with space", "bot_password", "a b"},
		{"bad host", "server", "mc example"},
		{"bad port", "server", "mc.example.net:99999"},
		{"bad chat", "notify_chat", "chat"},
		{"long template", tplProcessing, strings.Repeat("я", maxTemplateLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settingUpdate(tt.field, tt.input)
			assert.ErrorIs(t, err, errInvalidInput)
		})
	}

	_, err := settingUpdate("nope", "x")
	assert.ErrorIs(t, err, errUnknownField)
}

func TestEditFieldsHaveUpdates(t *testing.T) {
	valid := map[string]string{
		"coins_per_unit": "10",
		"test_username":  "Steve",
		"bot_username":   "Steve",
		"bot_password":   "pw",
		"server":         "host",
		"notify_chat":    "1",
		tplAfterPayment:  "a",
		tplProcessing:    "b",
		tplCompleted:     "c",
	}
	for field := range editFields {
		_, err := settingUpdate(field, valid[field])
		assert.NoError(t, err, field)
	}
}

func TestToggleUpdate(t *testing.T) {
	s := domain.DefaultSettings()

	for _, flag := range []string{"auto_start", "admin_notifications", "auto_give", "bot_enabled"} {
		fn, err := toggleUpdate(flag)
		require.NoError(t, err)
		fn(&s)
	}

	assert.False(t, s.AutoStart)
	assert.False(t, s.AdminNotifications)
	assert.False(t, s.AutoGiveCurrency)
	assert.False(t, s.MinecraftBot.Enabled)

	_, err := toggleUpdate("unknown")
	assert.ErrorIs(t, err, errUnknownField)
}

func TestCommandArg(t *testing.T) {
	assert.Equal(t, "A100", commandArg("/complete_A100", "/complete_"))
	assert.Equal(t, "A100", commandArg("/auto_A100@mc_shop_bot", "/auto_"))
	assert.Equal(t, "A100", commandArg(" /cancel_A100 please", "/cancel_"))
	assert.Equal(t, "", commandArg("/cancel_", "/cancel_"))
}
