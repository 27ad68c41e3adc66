package prefstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-web/core/prefs"
	"github.com/trezcool/masomo-web/core/sidebar"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "prefs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_ClientScoped(t *testing.T) {
	store := openStore(t)
	ana, ben := store.For("ana"), store.For("ben")

	assert.False(t, ana.Get(sidebar.CookieName).Valid)
	require.NoError(t, ana.Set(sidebar.CookieName, "false", sidebar.CookieMaxAge))
	require.NoError(t, ben.Set(sidebar.CookieName, "true", sidebar.CookieMaxAge))

	assert.Equal(t, "false", ana.Get(sidebar.CookieName).String)
	assert.Equal(t, "true", ben.Get(sidebar.CookieName).String)

	require.NoError(t, ana.Set(sidebar.CookieName, "true", sidebar.CookieMaxAge))
	assert.Equal(t, "true", ana.Get(sidebar.CookieName).String, "upserted")
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2021, time.January, 10, 12, 0, 0, 0, time.UTC)
	prefs.NowFunc = func() time.Time { return now }
	defer func() { prefs.NowFunc = time.Now }()

	store := openStore(t)
	cs := store.For("ana")
	require.NoError(t, cs.Set("short", "1", time.Minute))
	require.NoError(t, cs.Set("forever", "1", 0))

	now = now.Add(time.Hour)
	assert.False(t, cs.Get("short").Valid)
	assert.True(t, cs.Get("forever").Valid)

	n, err := store.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_SidebarRoundTrip(t *testing.T) {
	store := openStore(t)
	p := sidebar.NewProvider(sidebar.Options{DefaultOpen: true, Store: store.For("ana")})
	p.ToggleSidebar()

	next := sidebar.NewProvider(sidebar.Options{DefaultOpen: true, Store: store.For("ana")})
	assert.Equal(t, sidebar.Collapsed, next.State())
}
