package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kensei/kintai-engine/kvstore"
)

// =============================================================================
// NOTIFICATION SETTINGS
// =============================================================================

const settingsKey = "config:line_notification"

// Settings stores the admin's notification on/off toggle. Unset means
// enabled.
type Settings struct {
	kv kvstore.Store
}

// NewSettings creates a settings store on the given KV backend.
func NewSettings(kv kvstore.Store) *Settings {
	return &Settings{kv: kv}
}

// Enabled reports whether notifications should be sent.
func (s *Settings) Enabled(ctx context.Context) (bool, error) {
	data, err := s.kv.Get(ctx, settingsKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	var enabled bool
	if err := json.Unmarshal(data, &enabled); err != nil {
		// An unreadable value must not silence notifications.
		return true, nil
	}
	return enabled, nil
}

// SetEnabled stores the toggle.
func (s *Settings) SetEnabled(ctx context.Context, enabled bool) error {
	data, err := json.Marshal(enabled)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, settingsKey, data)
}

// Reset clears the toggle, returning it to the enabled default.
func (s *Settings) Reset(ctx context.Context) error {
	return s.kv.Delete(ctx, settingsKey)
}
