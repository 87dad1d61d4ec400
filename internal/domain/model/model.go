// Package model contains domain models passed between layers.
package model

import "time"

// Telemetry event kinds accepted from the reading UI.
const (
	TelemetryActivity  = "activity"
	TelemetryScroll    = "scroll"
	TelemetryImageSeen = "image_seen"
)

// TelemetryEvent is a reading beacon submitted while a chapter is open.
// Activity beacons cover scroll, pointer, touch, key and click input.
type TelemetryEvent struct {
	UserID    string    // reader identifier
	ChapterID string    // chapter being viewed
	Kind      string    // one of the Telemetry* constants
	ScrollPct float64   // scroll depth percentage, scroll events only
	ImageID   string    // image identifier, image_seen events only
	At        time.Time // client-side timestamp, informational
}

// UserReadingStats is the durable per-user reading record.
type UserReadingStats struct {
	UserID            string         `json:"user_id"`
	TotalChaptersRead int            `json:"total_chapters_read"`
	GenreCounts       map[string]int `json:"genre_counts"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// FlairResult is the derived gamification state for a reader.
type FlairResult struct {
	Rank   string   `json:"rank"`
	Genres []string `json:"genres"`
}

// SignedUpload is the response to a successful signing request.
type SignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}
