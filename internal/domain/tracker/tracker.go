// Package tracker decides whether a chapter viewing session counts as a
// genuine read and credits the reader's statistics exactly once when it
// does.
//
// Three independent signals must all pass at session end: sustained
// active time, a scroll-depth high-water mark, and the share of chapter
// images the reader actually saw. Active time accrues on a periodic
// sweep and freezes while the reader is idle, so a forgotten tab earns
// nothing.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/valetivivek/comite/pkg/logger"
	"github.com/valetivivek/comite/pkg/metrics"
)

// Default validity thresholds and timing.
const (
	defaultTickInterval     = 5 * time.Second
	defaultInactivityWindow = 15 * time.Second
	defaultMinActive        = 45 * time.Second
	defaultMinScrollPct     = 80.0
	defaultMinImageRatio    = 0.70
)

// StatsStore is the durable reading record the tracker credits into.
// AlreadyRead and ApplyValidRead must consult the same underlying record
// so a (user, chapter) pair can never be credited twice.
type StatsStore interface {
	AlreadyRead(ctx context.Context, userID, chapterID string) (bool, error)
	ApplyValidRead(ctx context.Context, userID, chapterID string, genres []string) error
}

// sessionKey identifies one live viewing session.
type sessionKey struct {
	userID    string
	chapterID string
}

// session is the ephemeral per-(user, chapter) state. Owned exclusively
// by the tracker; all access happens under the tracker mutex.
type session struct {
	seriesID       string
	genres         []string
	totalImages    int
	active         time.Duration
	scrollDepthPct float64
	seenImages     map[string]struct{}
	lastActivityAt time.Time
	startedAt      time.Time
}

// Tracker owns the live session map and applies the validity verdict.
type Tracker struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session

	stats StatsStore

	tickInterval     time.Duration
	inactivityWindow time.Duration
	minActive        time.Duration
	minScrollPct     float64
	minImageRatio    float64

	now    func() time.Time
	logger logger.Logger
}

// New creates a Tracker crediting into stats.
func New(stats StatsStore, opts ...Option) *Tracker {
	t := &Tracker{
		sessions:         make(map[sessionKey]*session),
		stats:            stats,
		tickInterval:     defaultTickInterval,
		inactivityWindow: defaultInactivityWindow,
		minActive:        defaultMinActive,
		minScrollPct:     defaultMinScrollPct,
		minImageRatio:    defaultMinImageRatio,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("tracker")
	}
	return t
}

// TickInterval returns the sweep cadence the run loop should use.
func (t *Tracker) TickInterval() time.Duration {
	return t.tickInterval
}

// StartSession begins tracking a chapter view. Starting is a silent
// no-op when a session for the key is already live or the chapter is
// already credited to the user; losing a start is acceptable, double
// counting is not.
func (t *Tracker) StartSession(ctx context.Context, userID, chapterID, seriesID string, totalImages int, genres []string) error {
	read, err := t.stats.AlreadyRead(ctx, userID, chapterID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey{userID: userID, chapterID: chapterID}
	if _, live := t.sessions[key]; live || read {
		metrics.RecordSessionIgnored()
		return nil
	}

	now := t.now()
	t.sessions[key] = &session{
		seriesID:       seriesID,
		genres:         genres,
		totalImages:    totalImages,
		seenImages:     make(map[string]struct{}),
		lastActivityAt: now,
		startedAt:      now,
	}
	metrics.RecordSessionStarted()
	metrics.UpdateActiveSessions(len(t.sessions))
	t.logger.Debug(ctx, "session started",
		logger.String("user", userID),
		logger.String("chapter", chapterID),
		logger.Int("totalImages", totalImages),
	)
	return nil
}

// RecordActivity marks the reader as active now. Fired on scroll,
// pointer movement, touch, key press and click. Missing sessions are
// ignored.
func (t *Tracker) RecordActivity(ctx context.Context, userID, chapterID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[sessionKey{userID: userID, chapterID: chapterID}]; ok {
		s.lastActivityAt = t.now()
	}
}

// RecordScrollDepth raises the scroll high-water mark. The percentage is
// clamped to [0,100] and never decreases.
func (t *Tracker) RecordScrollDepth(ctx context.Context, userID, chapterID string, pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[sessionKey{userID: userID, chapterID: chapterID}]; ok {
		if pct > s.scrollDepthPct {
			s.scrollDepthPct = pct
		}
	}
}

// RecordImageSeen counts a chapter image crossing the visibility
// threshold. The per-session seen set makes repeat sightings of the same
// image a no-op, and the count never exceeds totalImages.
func (t *Tracker) RecordImageSeen(ctx context.Context, userID, chapterID, imageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[sessionKey{userID: userID, chapterID: chapterID}]
	if !ok {
		return
	}
	if _, dup := s.seenImages[imageID]; dup {
		return
	}
	if len(s.seenImages) >= s.totalImages && s.totalImages > 0 {
		return
	}
	s.seenImages[imageID] = struct{}{}
}

// Tick sweeps every live session once: sessions whose reader was active
// within the inactivity window accrue one tick interval of active time,
// idle ones stay frozen. The run loop calls this every tick interval; a
// session removed by EndSession is simply no longer swept.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if now.Sub(s.lastActivityAt) <= t.inactivityWindow {
			s.active += t.tickInterval
		}
	}
}

// Run drives the sweep loop until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Tick(ctx, now)
		}
	}
}

// EndSession stops tracking the session, evaluates the validity
// predicate and, on a pass, credits the read exactly once. A missing
// session yields (false, nil).
func (t *Tracker) EndSession(ctx context.Context, userID, chapterID string) (bool, error) {
	key := sessionKey{userID: userID, chapterID: chapterID}

	t.mu.Lock()
	s, ok := t.sessions[key]
	if ok {
		delete(t.sessions, key)
		metrics.UpdateActiveSessions(len(t.sessions))
	}
	t.mu.Unlock()

	if !ok {
		return false, nil
	}

	valid := t.evaluate(s)
	t.logger.Debug(ctx, "session ended",
		logger.String("user", userID),
		logger.String("chapter", chapterID),
		logger.Duration("active", s.active),
		logger.Float64("scrollPct", s.scrollDepthPct),
		logger.Int("imagesSeen", len(s.seenImages)),
		logger.Any("valid", valid),
	)
	if !valid {
		metrics.RecordInvalidRead()
		return false, nil
	}

	if err := t.stats.ApplyValidRead(ctx, userID, chapterID, s.genres); err != nil {
		return false, err
	}
	metrics.RecordValidRead()
	return true, nil
}

// evaluate applies the three-signal validity predicate. A chapter with
// no images satisfies the image clause vacuously.
func (t *Tracker) evaluate(s *session) bool {
	if s.active < t.minActive {
		return false
	}
	if s.scrollDepthPct < t.minScrollPct {
		return false
	}
	if s.totalImages > 0 {
		ratio := float64(len(s.seenImages)) / float64(s.totalImages)
		if ratio < t.minImageRatio {
			return false
		}
	}
	return true
}

// ActiveSessions returns the number of sessions currently tracked.
func (t *Tracker) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
