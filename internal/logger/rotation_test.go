package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates file and directory", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "oracle.log")

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("prunes expired rotations", func(t *testing.T) {
		dir := t.TempDir()
		logFile := filepath.Join(dir, "oracle.log")
		old := logFile + ".20240101-000000.000"
		fresh := logFile + ".20991231-000000.000"
		require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
		require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0o644))
		stale := time.Now().AddDate(0, 0, -30)
		require.NoError(t, os.Chtimes(old, stale, stale))

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		_, err = os.Stat(old)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(fresh)
		assert.NoError(t, err)
	})
}

func TestRotatingWriter_Write(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "oracle.log")

	rw, err := NewRotatingWriter(logFile, 1, 7, false)
	require.NoError(t, err)
	defer rw.Close()

	data := []byte("provider call finished\n")
	n, err := rw.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(content))
}

func TestRotatingWriter_Rotates(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			logFile := filepath.Join(dir, "oracle.log")

			rw, err := NewRotatingWriter(logFile, 1, 0, compress)
			require.NoError(t, err)
			rw.maxSize = 16
			defer rw.Close()

			_, err = rw.Write([]byte("0123456789\n"))
			require.NoError(t, err)
			_, err = rw.Write([]byte("abcdefghij\n"))
			require.NoError(t, err)

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Equal(t, "abcdefghij\n", string(content))

			matches, err := filepath.Glob(logFile + ".*")
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, compress, strings.HasSuffix(matches[0], ".gz"))
		})
	}
}

func TestRotatingWriter_NoRotationWhenUnbounded(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "oracle.log")

	rw, err := NewRotatingWriter(logFile, 0, 0, false)
	require.NoError(t, err)
	defer rw.Close()

	for i := 0; i < 10; i++ {
		_, err := rw.Write([]byte("line\n"))
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(logFile + ".*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRotatingWriter_Concurrent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "oracle.log")

	rw, err := NewRotatingWriter(logFile, 1, 0, false)
	require.NoError(t, err)
	defer rw.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = rw.Write([]byte("x\n"))
			}
		}()
	}
	wg.Wait()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Len(t, content, 8*50*2)
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "oracle.log"), 1, 0, false)
	require.NoError(t, err)
	require.NoError(t, rw.Close())
	require.NoError(t, rw.Close())

	_, err = rw.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
