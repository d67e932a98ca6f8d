package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

func TestSettingsStore_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minecraft_currency_config.json")
	s := NewSettingsStore(path, discardLogger())

	assert.Equal(t, models.DefaultSettings(), s.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk models.Settings
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, int64(1_000_000), onDisk.CoinsPerUnit)
	assert.Equal(t, []int64{0}, onDisk.TrustedPaymentSenders)
}

func TestSettingsStore_CorruptFileKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	s := NewSettingsStore(path, discardLogger())
	assert.Equal(t, models.DefaultSettings(), s.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{oops", string(data))
}

func TestSettingsStore_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewSettingsStore(path, discardLogger())

	got, err := s.Update(func(st *models.Settings) {
		st.CoinsPerUnit = 500
		st.MinecraftBot.TestUsername = "Alex"
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.CoinsPerUnit)

	reopened := NewSettingsStore(path, discardLogger())
	assert.Equal(t, int64(500), reopened.Get().CoinsPerUnit)
	assert.Equal(t, "Alex", reopened.Get().MinecraftBot.TestUsername)
}

func TestSettingsStore_UpdateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewSettingsStore(path, discardLogger())

	tests := []struct {
		name string
		fn   func(*models.Settings)
	}{
		{"zero coins", func(st *models.Settings) { st.CoinsPerUnit = 0 }},
		{"port out of range", func(st *models.Settings) { st.MinecraftBot.Port = 70000 }},
		{"empty server", func(st *models.Settings) { st.MinecraftBot.Server = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(tt.fn)
			assert.Error(t, err)
			assert.Equal(t, models.DefaultSettings(), s.Get())
		})
	}
}

func TestSettingsStore_GetReturnsCopy(t *testing.T) {
	s := NewSettingsStore(filepath.Join(t.TempDir(), "config.json"), discardLogger())

	got := s.Get()
	got.TrustedPaymentSenders[0] = 99
	assert.Equal(t, []int64{0}, s.Get().TrustedPaymentSenders)
}
