package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harun/oracle/internal/observability"
	"github.com/harun/oracle/pkg/provider"
)

// ErrFileValidation matches every *FileError.
var ErrFileValidation = errors.New("file validation failed")

// File validation reasons.
const (
	ReasonNotFound   = "not-found"
	ReasonTooLarge   = "too-large"
	ReasonUnreadable = "unreadable"
)

// FileError is an attached file that cannot be sent.
type FileError struct {
	Path   string
	Reason string
	Size   int64
	Limit  int64
	Err    error
}

func (e *FileError) Error() string {
	switch e.Reason {
	case ReasonTooLarge:
		return fmt.Sprintf("file %s is too large (%d bytes, limit %d)", e.Path, e.Size, e.Limit)
	case ReasonNotFound:
		return fmt.Sprintf("file %s not found", e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("file %s is unreadable: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("file %s is unreadable", e.Path)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func (e *FileError) Is(target error) bool {
	return target == ErrFileValidation
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// LoadAttachments reads every path relative to cwd. Directories are walked
// recursively. A positive maxBytes caps each file. Paths are reported
// relative to cwd when possible and each file is attached once.
func LoadAttachments(cwd string, paths []string, maxBytes int64) ([]provider.Attachment, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, p)
		}
		abs = filepath.Clean(abs)

		info, err := os.Stat(abs)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &FileError{Path: p, Reason: ReasonNotFound, Err: err}
			}
			return nil, &FileError{Path: p, Reason: ReasonUnreadable, Err: err}
		}

		if !info.IsDir() {
			add(abs)
			continue
		}

		var dirFiles []string
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && skippedDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				dirFiles = append(dirFiles, path)
			}
			return nil
		})
		if err != nil {
			return nil, &FileError{Path: p, Reason: ReasonUnreadable, Err: err}
		}
		sort.Strings(dirFiles)
		for _, f := range dirFiles {
			add(f)
		}
	}

	attachments := make([]provider.Attachment, 0, len(files))
	for _, abs := range files {
		display := displayPath(cwd, abs)

		info, err := os.Stat(abs)
		if err != nil {
			return nil, &FileError{Path: display, Reason: ReasonUnreadable, Err: err}
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			return nil, &FileError{Path: display, Reason: ReasonTooLarge, Size: info.Size(), Limit: maxBytes}
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, &FileError{Path: display, Reason: ReasonUnreadable, Err: err}
		}
		observability.RecordAttachment(int64(len(data)))
		attachments = append(attachments, provider.Attachment{Path: display, Content: string(data)})
	}
	return attachments, nil
}

func displayPath(cwd, abs string) string {
	if cwd == "" {
		return abs
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
