package orders

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/suspectuso/mc-currency/internal/delivery"
	"github.com/suspectuso/mc-currency/internal/domain/models"
	"github.com/suspectuso/mc-currency/internal/notify"
)

// paymentRe matches marketplace payment notices, e.g. "Покупатель оплатил заказ #A100"
var paymentRe = regexp.MustCompile(`(?i)(?:paid\s+order|оплатил(?:а)?\s+заказ)\s+#([a-z0-9]+)`)

// Buyer facing replies
const (
	msgConfirmUsername = "❓Вы уверены в выдаче валюты на `%s`? [+/-]"
	msgNoProposed      = "❗ Не найден предложённый никнейм. Пожалуйста, отправьте никнейм ещё раз:"
	msgEnterUsername   = "📥Введите новый никнейм."
	msgConfirmPrompt   = "📩Пожалуйста, подтвердите выбор [+/-]"
	msgConfirmedManual = "✅ Подтверждение получено. Валюта будет выдана в ближайшее время."
	msgCancelled       = "❌ К сожалению, ваш заказ #%s был отменен.\nЕсли у вас есть вопросы, обратитесь к администратору."
	msgAutoNote        = "\n\n🤖 Деньги переведены автоматически!"
)

// placeholder left by older versions for orders without a nickname
const unsetUsername = "не указан"

type reply int

const (
	replyOther reply = iota
	replyYes
	replyNo
)

func classifyReply(text string) reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "+", "+1", "да", "yes", "плюс":
		return replyYes
	case "-", "нет", "no", "минус":
		return replyNo
	default:
		return replyOther
	}
}

// parsePaymentNotice extracts the order ID from a payment notice
func parsePaymentNotice(text string) (string, bool) {
	m := paymentRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// quote computes the coins owed for an order and its label
func quote(d models.OrderDetail, coinsPerUnit int64) (int64, string) {
	qty := d.Quantity
	if qty <= 0 {
		qty = 1
	}
	if coinsPerUnit <= 0 {
		coinsPerUnit = 1
	}
	amount := qty * coinsPerUnit

	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = "Товар"
	}
	label := fmt.Sprintf("%s → Minecraft валюта (%s монет за %d ед.)", desc, notify.FormatAmount(amount), qty)
	return amount, label
}

func deliverable(o models.PendingOrder) bool {
	return o.Status == models.StatusReadyForAdmin &&
		o.MinecraftUsername != "" &&
		o.MinecraftUsername != unsetUsername
}

func newOrderNotice(o models.PendingOrder) string {
	return fmt.Sprintf(
		"🆕 НОВЫЙ ЗАКАЗ НА ВЫДАЧУ ВАЛЮТЫ\n\n"+
			"💰 Заказ: #%s\n"+
			"👤 Никнейм: %s\n"+
			"💎 Сумма: %s монет\n"+
			"💵 Оплачено: %g руб.\n\n"+
			"Для выдачи валюты используйте команды:\n"+
			"✅ /complete_%s - Выдал валюту\n"+
			"🤖 /auto_%s - Автовыдача\n"+
			"❌ /cancel_%s - Отменить заказ",
		o.OrderID, o.MinecraftUsername, notify.FormatAmount(o.Amount), o.Price,
		o.OrderID, o.OrderID, o.OrderID,
	)
}

func deliveryFailedNotice(orderID, username string, amount int64, res delivery.Result) string {
	kind := res.ErrorKind
	if kind == "" {
		kind = "unknown"
	}
	return fmt.Sprintf(
		"❌ ОШИБКА АВТОМАТИЧЕСКОЙ ВЫДАЧИ\n\n"+
			"Заказ: #%s\n"+
			"Игрок: %s\n"+
			"Сумма: %s монет\n"+
			"Ошибка: %s (%s)\n\n"+
			"Требуется ручная выдача валюты!\n"+
			"✅ /complete_%s - Выдал вручную\n"+
			"🤖 /auto_%s - Повторить автовыдачу\n"+
			"❌ /cancel_%s - Отменить заказ",
		orderID, username, notify.FormatAmount(amount), res.Message, kind,
		orderID, orderID, orderID,
	)
}

func batchReport(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 АВТООБРАБОТКА ЗАВЕРШЕНА\n\n"+
		"• Обработано заказов: %d\n"+
		"• Успешно: %d ✅\n"+
		"• Ошибок: %d ❌\n", s.Processed, s.Succeeded, s.Failed)

	if s.Succeeded > 0 {
		fmt.Fprintf(&b, "\n💰 Валюта выдана автоматически для %d заказов!", s.Succeeded)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d заказов требуют ручной обработки.", s.Failed)
	}
	return b.String()
}
