package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/harun/oracle/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSessions(t *testing.T, h *harness, prompts ...string) []*session.Record {
	t.Helper()
	store := h.store(t)
	var recs []*session.Record
	for _, p := range prompts {
		rec, err := store.Create(session.RunOptions{Prompt: p, Model: "gpt-5.1"}, "/")
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	return recs
}

func TestStatusCommand(t *testing.T) {
	t.Run("empty with examples", func(t *testing.T) {
		h := newHarness(t)
		out, _, err := h.run(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "No sessions found for the requested range.")
		assert.Contains(t, out, "Usage Examples")
		assert.Contains(t, out, "oracle status clear --hours 168")
	})

	t.Run("empty with explicit filters hides examples", func(t *testing.T) {
		h := newHarness(t)
		out, _, err := h.run(t, "status", "--hours", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "No sessions found")
		assert.NotContains(t, out, "Usage Examples")
	})

	t.Run("lists sessions", func(t *testing.T) {
		h := newHarness(t)
		recs := seedSessions(t, h, "first question")

		out, _, err := h.run(t, "status", "--limit", "10")
		require.NoError(t, err)
		assert.Contains(t, out, "Recent Sessions")
		assert.Contains(t, out, formatStatusLine(recs[0]))
		assert.NotContains(t, out, "Usage Examples")
	})

	t.Run("truncation note", func(t *testing.T) {
		h := newHarness(t)
		seedSessions(t, h, "one", "two", "three")

		out, _, err := h.run(t, "status", "--limit", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Showing 2 of 3 sessions from the requested range.")
		assert.Contains(t, out, h.store(t).Root())
	})

	t.Run("zero limit shows nothing", func(t *testing.T) {
		h := newHarness(t)
		recs := seedSessions(t, h, "hidden by limit")

		out, _, err := h.run(t, "status", "--limit", "0")
		require.NoError(t, err)
		assert.Contains(t, out, "No sessions found for the requested range.")
		assert.NotContains(t, out, recs[0].ID)
	})

	t.Run("session without id lists", func(t *testing.T) {
		h := newHarness(t)
		seedSessions(t, h, "listed via session")

		out, _, err := h.run(t, "session", "--all")
		require.NoError(t, err)
		assert.Contains(t, out, "Recent Sessions")
	})
}

func TestStatusClear(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		h := newHarness(t)
		seedSessions(t, h, "a", "b")

		out, _, err := h.run(t, "status", "clear", "--all")
		require.NoError(t, err)
		assert.Equal(t, "Deleted 2 sessions (all stored sessions).\n", out)

		records, err := h.store(t).List()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("by age keeps recent sessions", func(t *testing.T) {
		h := newHarness(t)
		seedSessions(t, h, "fresh")

		out, _, err := h.run(t, "status", "clear", "--hours", "1.5")
		require.NoError(t, err)
		assert.Equal(t, "Deleted 0 sessions (sessions older than 1.5h).\n", out)
	})

	t.Run("singular", func(t *testing.T) {
		h := newHarness(t)
		seedSessions(t, h, "only")

		out, _, err := h.run(t, "status", "clear", "--all")
		require.NoError(t, err)
		assert.Equal(t, "Deleted 1 session (all stored sessions).\n", out)
	})
}

func TestFormatStatusLine(t *testing.T) {
	rec := &session.Record{
		ID:        "2025-11-20-09-30-15-explain",
		Status:    session.StatusRunning,
		CreatedAt: time.Date(2025, 11, 20, 9, 30, 15, 123e6, time.UTC),
		Model:     "gpt-5.1",
	}
	assert.Equal(t, "2025-11-20 09:30:15.123 | running   | gpt-5.1    | 2025-11-20-09-30-15-explain", formatStatusLine(rec))

	rec.Status = ""
	rec.Model = ""
	line := formatStatusLine(rec)
	assert.True(t, strings.Contains(line, "| unknown   | n/a        |"), line)
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "24", formatHours(24))
	assert.Equal(t, "1.5", formatHours(1.5))
}
