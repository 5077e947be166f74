package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harun/oracle/internal/observability"
	"github.com/rs/zerolog"
)

const (
	metaFileName    = "session.json"
	requestFileName = "request.json"
	logFileName     = "output.log"
	pidFileName     = "runner.pid"

	promptPreviewLength = 160
)

// Store is the file-backed session store. Each session lives in its own
// directory under root:
//
//	<root>/<id>/session.json  full record, replaced on every update
//	<root>/<id>/request.json  immutable options snapshot
//	<root>/<id>/output.log    append-only transcript
//
// Concurrent updates of one id are not serialized; the process executing a
// run is expected to be the only writer of its status.
type Store struct {
	root   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates the sessions root if needed and returns a store over it.
func NewStore(root string, logger zerolog.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: sessions root is required", ErrStorage)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create sessions directory: %v", ErrStorage, err)
	}

	return &Store{
		root:   root,
		logger: logger.With().Str("component", "session-store").Logger(),
		now:    time.Now,
	}, nil
}

// Root returns the sessions root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a session.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) metaPath(id string) string    { return filepath.Join(s.Dir(id), metaFileName) }
func (s *Store) requestPath(id string) string { return filepath.Join(s.Dir(id), requestFileName) }
func (s *Store) logPath(id string) string     { return filepath.Join(s.Dir(id), logFileName) }
func (s *Store) pidPath(id string) string     { return filepath.Join(s.Dir(id), pidFileName) }

// Create persists a new pending session for opts and returns its record.
func (s *Store) Create(opts RunOptions, cwd string) (*Record, error) {
	if strings.TrimSpace(opts.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	if opts.Files == nil {
		opts.Files = []string{}
	}
	if opts.Mode == "" {
		opts.Mode = ModeAPI
	}
	if opts.Model == "" && len(opts.Models) > 0 {
		opts.Model = opts.Models[0]
	}
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create sessions directory: %v", ErrStorage, err)
	}

	now := s.now().UTC()
	id := NewID(opts.Prompt, now)
	for s.exists(id) {
		next, err := disambiguate(id)
		if err != nil {
			return nil, err
		}
		id = next
	}

	if err := os.Mkdir(s.Dir(id), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create session directory: %v", ErrStorage, err)
	}

	rec := &Record{
		ID:            id,
		Status:        StatusPending,
		CreatedAt:     now,
		PromptPreview: preview(opts.Prompt),
		Model:         opts.Model,
		Mode:          opts.Mode,
		Cwd:           cwd,
		Options:       opts,
	}
	if opts.IsMultiModel() {
		for _, m := range opts.Models {
			rec.Models = append(rec.Models, ModelRun{Model: m, Status: "pending"})
		}
	}

	if err := s.writeJSON(s.metaPath(id), rec); err != nil {
		return nil, err
	}
	if err := s.writeJSON(s.requestPath(id), opts); err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.logPath(id), nil, 0o644); err != nil {
		return nil, fmt.Errorf("%w: failed to create session log: %v", ErrStorage, err)
	}

	observability.RecordSessionCreated()
	s.logger.Debug().Str("session_id", id).Str("model", opts.Model).Msg("Session created")

	return rec, nil
}

// Get reads a session record. Missing and corrupt records both yield
// ErrNotFound.
func (s *Store) Get(id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, ErrNotFound
	}
	start := s.now()
	defer func() {
		observability.RecordStoreRead(time.Since(start))
	}()

	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Debug().Str("session_id", id).Err(err).Msg("Unreadable session record")
		return nil, ErrNotFound
	}
	return &rec, nil
}

// ReadRequest returns the options snapshot written at creation.
func (s *Store) ReadRequest(id string) (*RunOptions, error) {
	if err := ValidateID(id); err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(s.requestPath(id))
	if err != nil {
		return nil, ErrNotFound
	}
	var opts RunOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, ErrNotFound
	}
	return &opts, nil
}

// Update merges p into the current record and replaces session.json.
// A missing or corrupt record is rebuilt from the id alone.
func (s *Store) Update(id string, p Patch) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	rec, err := s.Get(id)
	if err != nil {
		rec = &Record{ID: id}
	}
	p.apply(rec)

	if err := s.writeJSON(s.metaPath(id), rec); err != nil {
		return nil, err
	}
	if p.Status != nil {
		observability.RecordSessionTransition(string(*p.Status))
		s.logger.Debug().Str("session_id", id).Str("status", string(*p.Status)).Msg("Session status updated")
	}
	return rec, nil
}

// List returns every readable record, newest first.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read sessions directory: %v", ErrStorage, err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// WritePID records the OS process id of the detached runner of a session.
// It lives beside session.json so the launcher never races the runner for
// ownership of the record.
func (s *Store) WritePID(id string, pid int) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := os.WriteFile(s.pidPath(id), []byte(fmt.Sprintf("%d", pid)), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write runner pid: %v", ErrStorage, err)
	}
	return nil
}

// ReadPID returns the recorded runner pid, or 0 when none was recorded.
func (s *Store) ReadPID(id string) int {
	if ValidateID(id) != nil {
		return 0
	}
	data, err := os.ReadFile(s.pidPath(id))
	if err != nil {
		return 0
	}
	var pid int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &pid); err != nil {
		return 0
	}
	return pid
}

func (s *Store) exists(id string) bool {
	_, err := os.Stat(s.Dir(id))
	return err == nil
}

// writeJSON marshals v with indentation and replaces path through a temp
// file and rename, so readers never observe a partial document.
func (s *Store) writeJSON(path string, v interface{}) (err error) {
	start := s.now()
	defer func() {
		observability.RecordStoreWrite(time.Since(start))
	}()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal %s: %v", ErrStorage, filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrStorage, filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %v", ErrStorage, filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrStorage, filepath.Base(path), err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrStorage, filepath.Base(path), err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %v", ErrStorage, filepath.Base(path), err)
	}
	return nil
}

func preview(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= promptPreviewLength {
		return prompt
	}
	return string(runes[:promptPreviewLength])
}
