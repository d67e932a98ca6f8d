package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1000000, "1,000,000"},
		{-1234567, "-1,234,567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in))
	}
}

func TestRender(t *testing.T) {
	got := Render("#{order_id}: {amount} / {amount:,} -> {username}", "A100", 1000000, "Steve")
	assert.Equal(t, "#A100: 1,000,000 / 1,000,000 -> Steve", got)
}

func TestRender_NoPlaceholders(t *testing.T) {
	assert.Equal(t, "hello", Render("hello", "A1", 5, "x"))
}
