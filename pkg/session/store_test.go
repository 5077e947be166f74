package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, string) {
	tempDir := t.TempDir()
	store, err := NewStore(filepath.Join(tempDir, "sessions"), zerolog.Nop())
	require.NoError(t, err)
	return store, store.Root()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewStore(t *testing.T) {
	t.Run("creates root", func(t *testing.T) {
		store, root := setupTestStore(t)
		assert.NotNil(t, store)
		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := NewStore("", zerolog.Nop())
		assert.ErrorIs(t, err, ErrStorage)
	})

	t.Run("root under a file", func(t *testing.T) {
		tempDir := t.TempDir()
		blocker := filepath.Join(tempDir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := NewStore(filepath.Join(blocker, "sessions"), zerolog.Nop())
		assert.ErrorIs(t, err, ErrStorage)
	})
}

func TestStore_CreateAndGet(t *testing.T) {
	store, root := setupTestStore(t)
	store.now = fixedClock(time.Date(2025, 11, 20, 9, 30, 15, 0, time.UTC))

	opts := RunOptions{
		Prompt:    "Explain the crash in the worker pool",
		Files:     []string{"src/pool.go", "docs/crash.log"},
		Model:     "gpt-5-pro",
		MaxInput:  4096,
		MaxOutput: 2048,
		Search:    true,
	}

	rec, err := store.Create(opts, "/work")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-20-09-30-15-explain-the-crash-in-the-worker", rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "/work", rec.Cwd)
	assert.Equal(t, ModeAPI, rec.Mode)

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, opts.Prompt, got.Options.Prompt)
	assert.Equal(t, opts.Files, got.Options.Files)
	assert.Equal(t, opts.Model, got.Options.Model)
	assert.Equal(t, opts.MaxInput, got.Options.MaxInput)
	assert.Equal(t, opts.MaxOutput, got.Options.MaxOutput)
	assert.True(t, got.Options.Search)

	req, err := store.ReadRequest(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Options, *req)

	for _, name := range []string{metaFileName, requestFileName, logFileName} {
		_, err := os.Stat(filepath.Join(root, rec.ID, name))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(root, rec.ID, metaFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n  \"id\""), "session.json should be pretty-printed")
}

func TestStore_CreateCollision(t *testing.T) {
	store, _ := setupTestStore(t)
	store.now = fixedClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	first, err := store.Create(RunOptions{Prompt: "same prompt", Model: "gpt-5.1"}, "/")
	require.NoError(t, err)
	second, err := store.Create(RunOptions{Prompt: "same prompt", Model: "gpt-5.1"}, "/")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, strings.HasPrefix(second.ID, first.ID+"-"))
	assert.Len(t, strings.TrimPrefix(second.ID, first.ID+"-"), 3)
}

func TestStore_CreateValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Create(RunOptions{Prompt: "   ", Model: "gpt-5-pro"}, "/")
	assert.ErrorIs(t, err, ErrPromptRequired)

	_, err = store.Create(RunOptions{Prompt: "hi", Model: "gpt-5-pro", Mode: "carrier-pigeon"}, "/")
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = store.Create(RunOptions{Prompt: "hi", Models: []string{"a", "a"}}, "/")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestStore_CreateMultiModel(t *testing.T) {
	store, _ := setupTestStore(t)

	rec, err := store.Create(RunOptions{Prompt: "compare", Models: []string{"gpt-5.1", "gemini-3-pro"}}, "/")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5.1", rec.Model)
	require.Len(t, rec.Models, 2)
	assert.Equal(t, "gemini-3-pro", rec.Models[1].Model)
	assert.Equal(t, "pending", rec.Models[1].Status)
}

func TestStore_GetMissingOrCorrupt(t *testing.T) {
	store, root := setupTestStore(t)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	dir := filepath.Join(root, "corrupt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFileName), []byte("{not json"), 0o644))

	_, err = store.Get("corrupt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateMerges(t *testing.T) {
	store, _ := setupTestStore(t)

	rec, err := store.Create(RunOptions{Prompt: "hello", Model: "gpt-5-pro"}, "/")
	require.NoError(t, err)

	_, err = store.Update(rec.ID, StatusPatch(StatusRunning))
	require.NoError(t, err)

	_, err = store.Update(rec.ID, Patch{Usage: &Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}})
	require.NoError(t, err)

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	require.NotNil(t, got.Usage)
	assert.Equal(t, 10, got.Usage.InputTokens)
	assert.Equal(t, 5, got.Usage.OutputTokens)
	assert.Equal(t, "hello", got.Options.Prompt)
}

func TestStore_UpdateRebuildsCorruptRecord(t *testing.T) {
	store, root := setupTestStore(t)

	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFileName), []byte("garbage"), 0o644))

	msg := "boom"
	rec, err := store.Update("broken", Patch{Status: ptrStatus(StatusError), ErrorMessage: &msg})
	require.NoError(t, err)
	assert.Equal(t, "broken", rec.ID)

	got, err := store.Get("broken")
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)
}

func TestStore_UpdateMissingDirectory(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Update("gone", StatusPatch(StatusRunning))
	assert.ErrorIs(t, err, ErrStorage)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, root := setupTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, prompt := range []string{"first", "second", "third"} {
		store.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		_, err := store.Create(RunOptions{Prompt: prompt, Model: "gpt-5.1"}, "/")
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "junk"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Options.Prompt)
	assert.Equal(t, "second", records[1].Options.Prompt)
	assert.Equal(t, "first", records[2].Options.Prompt)
}

func TestStore_PID(t *testing.T) {
	store, _ := setupTestStore(t)

	rec, err := store.Create(RunOptions{Prompt: "detached", Model: "gpt-5.1"}, "/")
	require.NoError(t, err)
	assert.Equal(t, 0, store.ReadPID(rec.ID))

	require.NoError(t, store.WritePID(rec.ID, 4242))
	assert.Equal(t, 4242, store.ReadPID(rec.ID))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation", "What's wrong with foo()?", "what-s-wrong-with-foo"},
		{"empty", "", "session"},
		{"symbols only", "!!! ???", "session"},
		{"word boundary", "alpha beta gamma delta epsilon zeta", "alpha-beta-gamma-delta-epsilon"},
		{"long first word", strings.Repeat("x", 40), strings.Repeat("x", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in, slugMaxLength))
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		shouldErr bool
	}{
		{"valid id", "2025-01-01-00-00-00-hello", false},
		{"empty id", "", true},
		{"path traversal", "../etc/passwd", true},
		{"forward slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.shouldErr {
				assert.ErrorIs(t, err, ErrInvalidID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func ptrStatus(s Status) *Status {
	return &s
}
