package repository

import (
	"context"
	"sync"
	"time"

	"github.com/valetivivek/comite/internal/domain/model"
)

// statsKeyPrefix namespaces reading records in the document store.
const statsKeyPrefix = "reading_stats:"

// statsRecord is the single authoritative per-user document. Counters,
// the validly-read chapter set and the manual flair override live in one
// record so the already-read check and the increment can never diverge.
type statsRecord struct {
	UserID            string          `json:"user_id"`
	TotalChaptersRead int             `json:"total_chapters_read"`
	GenreCounts       map[string]int  `json:"genre_counts"`
	ReadChapters      map[string]bool `json:"read_chapters"`
	FlairOverride     []string        `json:"flair_override,omitempty"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// StatsStore persists per-user reading statistics.
type StatsStore struct {
	mu   sync.Mutex
	docs DocStore
	now  func() time.Time
}

// StatsOption applies a configuration option to the StatsStore.
type StatsOption func(*StatsStore)

// WithStatsClock overrides the time source, used by tests.
func WithStatsClock(now func() time.Time) StatsOption {
	return func(s *StatsStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStatsStore creates a StatsStore backed by docs.
func NewStatsStore(docs DocStore, opts ...StatsOption) *StatsStore {
	s := &StatsStore{docs: docs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StatsStore) load(ctx context.Context, userID string) (statsRecord, error) {
	rec := statsRecord{
		UserID:       userID,
		GenreCounts:  make(map[string]int),
		ReadChapters: make(map[string]bool),
	}
	if _, err := s.docs.Get(ctx, statsKeyPrefix+userID, &rec); err != nil {
		return statsRecord{}, err
	}
	if rec.GenreCounts == nil {
		rec.GenreCounts = make(map[string]int)
	}
	if rec.ReadChapters == nil {
		rec.ReadChapters = make(map[string]bool)
	}
	return rec, nil
}

// AlreadyRead reports whether the chapter was previously credited to the user.
func (s *StatsStore) AlreadyRead(ctx context.Context, userID, chapterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.ReadChapters[chapterID], nil
}

// ApplyValidRead credits a validated read: the chapter joins the read set,
// totalChaptersRead increments by one, and every distinct genre count
// increments by one. A chapter already in the read set is a no-op, which
// makes the call idempotent per (user, chapter). Counters only ever grow.
func (s *StatsStore) ApplyValidRead(ctx context.Context, userID, chapterID string, genres []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if rec.ReadChapters[chapterID] {
		return nil
	}

	rec.ReadChapters[chapterID] = true
	rec.TotalChaptersRead++
	seen := make(map[string]struct{}, len(genres))
	for _, genre := range genres {
		if genre == "" {
			continue
		}
		if _, dup := seen[genre]; dup {
			continue
		}
		seen[genre] = struct{}{}
		rec.GenreCounts[genre]++
	}
	rec.LastUpdated = s.now()

	return s.docs.Set(ctx, statsKeyPrefix+userID, rec)
}

// Stats returns the user's durable reading statistics. Unknown users get
// a zeroed record rather than an error.
func (s *StatsStore) Stats(ctx context.Context, userID string) (model.UserReadingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return model.UserReadingStats{}, err
	}
	return model.UserReadingStats{
		UserID:            userID,
		TotalChaptersRead: rec.TotalChaptersRead,
		GenreCounts:       rec.GenreCounts,
		LastUpdated:       rec.LastUpdated,
	}, nil
}

// FlairOverride returns the user's manual genre selection, if any.
func (s *StatsStore) FlairOverride(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rec.FlairOverride, nil
}

// SetFlairOverride persists a manual genre selection. An empty slice
// clears the override and reverts the user to automatic flairs.
func (s *StatsStore) SetFlairOverride(ctx context.Context, userID string, genres []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.FlairOverride = genres
	rec.LastUpdated = s.now()
	return s.docs.Set(ctx, statsKeyPrefix+userID, rec)
}
