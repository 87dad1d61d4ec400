package tracker

import (
	"time"

	"github.com/valetivivek/comite/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithTickInterval sets the active-time accrual cadence.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithInactivityWindow sets how long after the last activity signal the
// accrual keeps running.
func WithInactivityWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.inactivityWindow = d
		}
	}
}

// WithMinActive sets the minimum accumulated active time for a valid read.
func WithMinActive(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.minActive = d
		}
	}
}

// WithMinScrollPct sets the minimum scroll high-water mark for a valid read.
func WithMinScrollPct(pct float64) Option {
	return func(t *Tracker) {
		if pct >= 0 && pct <= 100 {
			t.minScrollPct = pct
		}
	}
}

// WithMinImageRatio sets the minimum imagesSeen/totalImages for a valid read.
func WithMinImageRatio(ratio float64) Option {
	return func(t *Tracker) {
		if ratio >= 0 && ratio <= 1 {
			t.minImageRatio = ratio
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}
