package notify

import (
	"strconv"
	"strings"
)

// Render fills a buyer template. {amount} and {amount:,} both produce a comma grouped number.
func Render(template, orderID string, amount int64, username string) string {
	r := strings.NewReplacer(
		"{order_id}", orderID,
		"{amount:,}", FormatAmount(amount),
		"{amount}", FormatAmount(amount),
		"{username}", username,
	)
	return r.Replace(template)
}

// FormatAmount groups thousands with commas: 1000000 -> 1,000,000
func FormatAmount(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
