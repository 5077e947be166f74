package session

import (
	"fmt"
	"math"
	"os"
	"time"
)

const (
	// MaxListLimit caps every listing regardless of the requested limit.
	MaxListLimit = 1000

	// DefaultListLimit is the --limit flag default.
	DefaultListLimit = 100
	DefaultHours     = 24
)

// Range selects sessions by age for listing.
type Range struct {
	Hours      float64
	IncludeAll bool
	Limit      int
}

// FilterResult is a capped view over a record list.
type FilterResult struct {
	Entries   []*Record
	Truncated bool
	Total     int // matching records before the cap
}

// DeleteResult reports how many session directories were removed.
type DeleteResult struct {
	Deleted int
}

// FilterByRange keeps records created within the last r.Hours (or all of
// them with IncludeAll) and caps the result at min(r.Limit, MaxListLimit).
// A zero or negative limit keeps nothing. Input order is preserved.
func FilterByRange(records []*Record, r Range, now time.Time) FilterResult {
	limit := r.Limit
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	filtered := records
	if !r.IncludeAll {
		cutoff := now.Add(-hoursToDuration(r.Hours))
		filtered = make([]*Record, 0, len(records))
		for _, rec := range records {
			if !rec.CreatedAt.Before(cutoff) {
				filtered = append(filtered, rec)
			}
		}
	}

	entries := filtered
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return FilterResult{
		Entries:   entries,
		Truncated: len(filtered) > limit,
		Total:     len(filtered),
	}
}

// FilterByRange applies the package function with the store clock.
func (s *Store) FilterByRange(records []*Record, r Range) FilterResult {
	return FilterByRange(records, r, s.now())
}

// DeleteOlderThan removes whole session directories created before the
// cutoff, or every directory with IncludeAll. A record that cannot be read
// falls back to the directory modification time. Directories that fail to
// delete are skipped and not counted.
func (s *Store) DeleteOlderThan(r Range) (DeleteResult, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return DeleteResult{}, nil
		}
		return DeleteResult{}, fmt.Errorf("%w: failed to read sessions directory: %v", ErrStorage, err)
	}

	cutoff := s.now().Add(-hoursToDuration(r.Hours))
	deleted := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		dir := s.Dir(id)

		if !r.IncludeAll {
			created, ok := s.createdAt(id, dir)
			if !ok || !created.Before(cutoff) {
				continue
			}
		}

		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn().Str("session_id", id).Err(err).Msg("Failed to delete session")
			continue
		}
		deleted++
		s.logger.Debug().Str("session_id", id).Msg("Session deleted")
	}

	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("Cleaned up old sessions")
	}
	return DeleteResult{Deleted: deleted}, nil
}

func (s *Store) createdAt(id, dir string) (time.Time, bool) {
	if rec, err := s.Get(id); err == nil && !rec.CreatedAt.IsZero() {
		return rec.CreatedAt, true
	}
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func hoursToDuration(hours float64) time.Duration {
	if math.IsInf(hours, 1) || hours*float64(time.Hour) > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(hours * float64(time.Hour))
}
