package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogWriter appends to a session transcript. Every write is a single append
// to the file, so tailing readers only ever see the transcript grow.
type LogWriter struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

// OpenLog opens the transcript of id for appending, creating it if absent.
// Callers must Close the writer on every exit path.
func (s *Store) OpenLog(id string) (*LogWriter, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	path := s.logPath(id)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open session log: %v", ErrStorage, err)
	}
	return &LogWriter{file: file, path: path}, nil
}

// Path returns the transcript file path.
func (w *LogWriter) Path() string {
	return w.path
}

// Write appends raw streamed text.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}
	return w.file.Write(p)
}

// Line appends line followed by a newline.
func (w *LogWriter) Line(line string) error {
	_, err := w.Write([]byte(line + "\n"))
	return err
}

// Close flushes the transcript to disk and releases the handle. Calling it
// more than once is a no-op.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	syncErr := w.file.Sync()
	if err := w.file.Close(); err != nil {
		return err
	}
	return syncErr
}

// ReadLog returns the whole transcript, or nothing when it does not exist.
func (s *Store) ReadLog(id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, nil
	}
	data, err := os.ReadFile(s.logPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read session log: %v", ErrStorage, err)
	}
	return data, nil
}

// Tail returns the bytes appended after offset. Pollers keep the running
// total of consumed bytes and pass it back, so each call reads only the
// delta.
func (s *Store) Tail(id string, offset int64) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	file, err := os.Open(s.logPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to open session log: %v", ErrStorage, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat session log: %v", ErrStorage, err)
	}
	size := info.Size()
	if size <= offset {
		return nil, nil
	}

	buf := make([]byte, size-offset)
	n, err := file.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to read session log: %v", ErrStorage, err)
	}
	return buf[:n], nil
}
