package prefs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	now := time.Date(2021, time.January, 10, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	store := NewMemory()
	assert.False(t, store.Get("sidebar_state").Valid, "unknown key")

	assert.NoError(t, store.Set("sidebar_state", "true", time.Hour))
	got := store.Get("sidebar_state")
	assert.True(t, got.Valid)
	assert.Equal(t, "true", got.String)

	assert.NoError(t, store.Set("sidebar_state", "false", time.Hour))
	assert.Equal(t, "false", store.Get("sidebar_state").String, "overwritten")

	now = now.Add(time.Hour)
	assert.False(t, store.Get("sidebar_state").Valid, "expired")

	assert.NoError(t, store.Set("forever", "1", 0))
	now = now.Add(24 * 365 * time.Hour)
	assert.True(t, store.Get("forever").Valid, "no ttl")
}
