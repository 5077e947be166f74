package session

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordsAt(now time.Time, ages ...time.Duration) []*Record {
	records := make([]*Record, 0, len(ages))
	for i, age := range ages {
		records = append(records, &Record{
			ID:        string(rune('a' + i)),
			CreatedAt: now.Add(-age),
		})
	}
	return records
}

func TestFilterByRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	records := recordsAt(now, time.Hour, 25*time.Hour, 200*time.Hour)

	t.Run("default window", func(t *testing.T) {
		res := FilterByRange(records, Range{Hours: DefaultHours, Limit: DefaultListLimit}, now)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "a", res.Entries[0].ID)
		assert.False(t, res.Truncated)
		assert.Equal(t, 1, res.Total)
	})

	t.Run("include all ignores hours", func(t *testing.T) {
		res := FilterByRange(records, Range{Hours: 1, IncludeAll: true, Limit: DefaultListLimit}, now)
		assert.Len(t, res.Entries, 3)
	})

	t.Run("limit truncates", func(t *testing.T) {
		res := FilterByRange(records, Range{IncludeAll: true, Limit: 2}, now)
		assert.Len(t, res.Entries, 2)
		assert.True(t, res.Truncated)
		assert.Equal(t, 3, res.Total)
	})

	t.Run("limit equal to count is not truncated", func(t *testing.T) {
		res := FilterByRange(records, Range{IncludeAll: true, Limit: 3}, now)
		assert.Len(t, res.Entries, 3)
		assert.False(t, res.Truncated)
	})

	t.Run("preserves order", func(t *testing.T) {
		res := FilterByRange(records, Range{Hours: 1000, Limit: DefaultListLimit}, now)
		require.Len(t, res.Entries, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{res.Entries[0].ID, res.Entries[1].ID, res.Entries[2].ID})
	})

	t.Run("idempotent", func(t *testing.T) {
		r := Range{Hours: 48, Limit: 1}
		once := FilterByRange(records, r, now)
		twice := FilterByRange(once.Entries, r, now)
		assert.Equal(t, once.Entries, twice.Entries)
	})

	t.Run("infinite hours", func(t *testing.T) {
		res := FilterByRange(records, Range{Hours: math.Inf(1), Limit: DefaultListLimit}, now)
		assert.Len(t, res.Entries, 3)
	})
}

func TestFilterByRange_CapsAtMaxLimit(t *testing.T) {
	now := time.Now()
	ages := make([]time.Duration, MaxListLimit+5)
	records := recordsAt(now, ages...)

	res := FilterByRange(records, Range{IncludeAll: true, Limit: 5000}, now)
	assert.Len(t, res.Entries, MaxListLimit)
	assert.True(t, res.Truncated)

	res = FilterByRange(records, Range{IncludeAll: true, Limit: DefaultListLimit}, now)
	assert.Len(t, res.Entries, DefaultListLimit)
}

func TestFilterByRange_NonPositiveLimit(t *testing.T) {
	now := time.Now()
	records := recordsAt(now, 0, time.Minute, 2*time.Minute)

	for _, limit := range []int{0, -3} {
		res := FilterByRange(records, Range{IncludeAll: true, Limit: limit}, now)
		assert.Empty(t, res.Entries, "limit %d", limit)
		assert.Equal(t, 3, res.Total)
		assert.True(t, res.Truncated)
	}
}

func TestStore_DeleteOlderThan(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	seed := func(t *testing.T) *Store {
		store, _ := setupTestStore(t)
		for _, age := range []time.Duration{time.Hour, 25 * time.Hour, 200 * time.Hour} {
			store.now = fixedClock(now.Add(-age))
			_, err := store.Create(RunOptions{Prompt: "aged " + age.String(), Model: "gpt-5.1"}, "/")
			require.NoError(t, err)
		}
		store.now = fixedClock(now)
		return store
	}

	t.Run("older than a day", func(t *testing.T) {
		store := seed(t)
		res, err := store.DeleteOlderThan(Range{Hours: 24})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Deleted)

		remaining, err := store.List()
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "aged 1h0m0s", remaining[0].Options.Prompt)
	})

	t.Run("include all", func(t *testing.T) {
		store := seed(t)
		res, err := store.DeleteOlderThan(Range{Hours: 24, IncludeAll: true})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Deleted)
	})

	t.Run("unreadable record falls back to directory time", func(t *testing.T) {
		store := seed(t)
		dir := filepath.Join(store.Root(), "orphan")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		old := now.Add(-72 * time.Hour)
		require.NoError(t, os.Chtimes(dir, old, old))

		res, err := store.DeleteOlderThan(Range{Hours: 24})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Deleted)
		_, err = os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing root", func(t *testing.T) {
		store := seed(t)
		require.NoError(t, os.RemoveAll(store.Root()))
		res, err := store.DeleteOlderThan(Range{Hours: 24})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Deleted)
	})
}
