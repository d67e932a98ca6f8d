package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	ctx := context.Background()

	assert.True(t, SetupLogger(EnvLocal).Enabled(ctx, slog.LevelDebug))
	assert.True(t, SetupLogger(EnvDev).Enabled(ctx, slog.LevelDebug))
	assert.False(t, SetupLogger(EnvProd).Enabled(ctx, slog.LevelDebug))
	assert.True(t, SetupLogger(EnvProd).Enabled(ctx, slog.LevelInfo))
	assert.False(t, SetupLogger("unknown").Enabled(ctx, slog.LevelDebug))
}
