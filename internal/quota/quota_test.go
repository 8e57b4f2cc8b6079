package quota

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesTokyoDate(t *testing.T) {
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)

	// 15:30 UTC is already the next day in Tokyo.
	now := time.Date(2026, 3, 31, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-04-01", Today(now, loc))
}

func TestCheck(t *testing.T) {
	const today = "2026-04-01"

	tests := []struct {
		name        string
		isPro       bool
		meta        Meta
		wantAllowed bool
		wantMeta    Meta
	}{
		{"first chat", false, Meta{}, true, Meta{Count: 1, Date: today}},
		{"under limit", false, Meta{Count: 4, Date: today}, true, Meta{Count: 5, Date: today}},
		{"at limit", false, Meta{Count: 5, Date: today}, false, Meta{Count: 5, Date: today}},
		{"stale day resets", false, Meta{Count: 5, Date: "2026-03-31"}, true, Meta{Count: 1, Date: today}},
		{"pro untouched", true, Meta{Count: 99, Date: "2020-01-01"}, true, Meta{Count: 99, Date: "2020-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, next := Check(tt.isPro, tt.meta, today, DefaultDailyLimit)
			assert.Equal(t, tt.wantAllowed, allowed)
			assert.Equal(t, tt.wantMeta, next)
		})
	}
}

func TestLimiter_AllowsUpToLimitThenRollsOver(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	l, err := NewLimiter(NewMemoryStore(), 2, DefaultTimezone, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	d, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// Other users have their own budget.
	d, err = l.Allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	now = now.Add(24 * time.Hour)
	d, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_ProAndUnlimited(t *testing.T) {
	store := NewMemoryStore()
	l, err := NewLimiter(store, 0, "", WithProUsers("pro"))
	require.NoError(t, err)

	d, err := l.Allow(context.Background(), "pro")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, -1, d.Remaining)
	_, err = store.Get(context.Background(), "pro")
	assert.ErrorIs(t, err, ErrNotFound)

	d, err = l.Allow(context.Background(), "free")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	unlimited, err := NewLimiter(store, -1, "UTC")
	require.NoError(t, err)
	assert.True(t, unlimited.IsPro("anyone"))
}

func TestNewLimiter_BadTimezone(t *testing.T) {
	_, err := NewLimiter(NewMemoryStore(), 5, "Nowhere/Land")
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTripAndLimiter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "quota.db")

	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = store.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "u1", Meta{Count: 1, Date: "2026-04-01"}))
	require.NoError(t, store.Put(ctx, "u1", Meta{Count: 2, Date: "2026-04-01"}))
	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Meta{Count: 2, Date: "2026-04-01"}, got)
	require.NoError(t, store.Close())

	// Records survive a reopen.
	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)
	l, err := NewLimiter(store, 3, DefaultTimezone, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	d, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
