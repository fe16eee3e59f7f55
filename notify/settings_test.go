package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kensei/kintai-engine/kvstore/memory"
	"github.com/kensei/kintai-engine/notify"
)

func TestSettings_DefaultEnabled(t *testing.T) {
	settings := notify.NewSettings(memory.New())

	enabled, err := settings.Enabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled, "unset toggle defaults to enabled")
}

func TestSettings_ToggleAndReset(t *testing.T) {
	ctx := context.Background()
	settings := notify.NewSettings(memory.New())

	require.NoError(t, settings.SetEnabled(ctx, false))
	enabled, err := settings.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	// Reset restores the enabled default.
	require.NoError(t, settings.Reset(ctx))
	enabled, err = settings.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSettings_CorruptValueFallsBackToEnabled(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, "config:line_notification", []byte("not-json")))

	enabled, err := notify.NewSettings(kv).Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}
