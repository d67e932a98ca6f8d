package telegram

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	domain "github.com/suspectuso/mc-currency/internal/domain/models"
)

// Template fields editable from the messages menu
const (
	tplAfterPayment = "tpl_after_payment"
	tplProcessing   = "tpl_processing"
	tplCompleted    = "tpl_completed"
)

const maxTemplateLen = 1000

var (
	errInvalidInput = errors.New("invalid input")
	errUnknownField = errors.New("unknown settings field")

	nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)
	hostRe     = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
)

type editField struct {
	state  string
	prompt string
}

var editFields = map[string]editField{
	"coins_per_unit": {StateWaitCoinsPerUnit, "💎 Введите количество монет за одну единицу товара.\nНапример: <code>1000000</code>"},
	"test_username":  {StateWaitTestUsername, "🎯 Введите никнейм игрока для тестовых переводов (/mc_test_pay)."},
	"bot_username":   {StateWaitBotUsername, "🔧 Введите новый никнейм бота."},
	"bot_password":   {StateWaitBotPassword, "🔑 Введите новый пароль бота."},
	"server":         {StateWaitServer, "🌐 Введите адрес сервера.\nНапример: <code>mc.example.net</code> или <code>mc.example.net:25565</code>"},
	"notify_chat":    {StateWaitNotifyChat, "📣 Введите ID чата для уведомлений (0 чтобы отключить)."},
	tplAfterPayment:  {StateWaitTemplate, "📝 Введите сообщение после оплаты."},
	tplProcessing:    {StateWaitTemplate, "⏳ Введите сообщение при обработке.\nДоступно: <code>{order_id}</code>, <code>{amount}</code>, <code>{username}</code>"},
	tplCompleted:     {StateWaitTemplate, "✅ Введите сообщение после завершения.\nДоступно: <code>{order_id}</code>, <code>{amount}</code>, <code>{username}</code>"},
}

// settingUpdate parses admin input for field and returns the change to apply
func settingUpdate(field, input string) (func(*domain.Settings), error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty value", errInvalidInput)
	}

	switch field {
	case "coins_per_unit":
		n, err := strconv.ParseInt(strings.ReplaceAll(input, ",", ""), 10, 64)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: expected a positive number", errInvalidInput)
		}
		return func(s *domain.Settings) { s.CoinsPerUnit = n }, nil

	case "test_username", "bot_username":
		if !nicknameRe.MatchString(input) {
			return nil, fmt.Errorf("%w: nickname must be 3-16 latin letters, digits or _", errInvalidInput)
		}
		if field == "test_username" {
			return func(s *domain.Settings) { s.MinecraftBot.TestUsername = input }, nil
		}
		return func(s *domain.Settings) { s.MinecraftBot.BotUsername = input }, nil

	case "bot_password":
		if strings.ContainsAny(input, " \t\n") {
			return nil, fmt.Errorf("%w: password must not contain spaces", errInvalidInput)
		}
		return func(s *domain.Settings) { s.MinecraftBot.Password = input }, nil

	case "server":
		host, port, err := parseServer(input)
		if err != nil {
			return nil, err
		}
		return func(s *domain.Settings) {
			s.MinecraftBot.Server = host
			if port != 0 {
				s.MinecraftBot.Port = port
			}
		}, nil

	case "notify_chat":
		id, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: expected a chat id", errInvalidInput)
		}
		return func(s *domain.Settings) { s.NotificationChatID = id }, nil

	case tplAfterPayment, tplProcessing, tplCompleted:
		if utf8.RuneCountInString(input) > maxTemplateLen {
			return nil, fmt.Errorf("%w: message longer than %d characters", errInvalidInput, maxTemplateLen)
		}
		return func(s *domain.Settings) {
			switch field {
			case tplAfterPayment:
				s.Messages.AfterPayment = input
			case tplProcessing:
				s.Messages.Processing = input
			case tplCompleted:
				s.Messages.Completed = input
			}
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownField, field)
}

// parseServer splits "host[:port]". Port is 0 when absent.
func parseServer(input string) (string, int, error) {
	host, portStr, hasPort := strings.Cut(input, ":")
	if !hostRe.MatchString(host) {
		return "", 0, fmt.Errorf("%w: bad host %q", errInvalidInput, host)
	}
	if !hasPort {
		return host, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port %q", errInvalidInput, portStr)
	}
	return host, port, nil
}

// toggleUpdate returns the change flipping a boolean setting
func toggleUpdate(flag string) (func(*domain.Settings), error) {
	switch flag {
	case "auto_start":
		return func(s *domain.Settings) { s.AutoStart = !s.AutoStart }, nil
	case "admin_notifications":
		return func(s *domain.Settings) { s.AdminNotifications = !s.AdminNotifications }, nil
	case "auto_give":
		return func(s *domain.Settings) { s.AutoGiveCurrency = !s.AutoGiveCurrency }, nil
	case "bot_enabled":
		return func(s *domain.Settings) { s.MinecraftBot.Enabled = !s.MinecraftBot.Enabled }, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnknownField, flag)
}

// commandArg returns the order ID from "/complete_A100" style commands.
// A trailing "@botname" or anything after a space is dropped.
func commandArg(text, prefix string) string {
	arg := strings.TrimPrefix(strings.TrimSpace(text), prefix)
	if i := strings.IndexAny(arg, "@ "); i >= 0 {
		arg = arg[:i]
	}
	return arg
}
