// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Tracker thresholds and timing.
	Tracker TrackerConfig `koanf:"tracker"`

	// Telemetry ingestion pipeline.
	TelemetryQueueSize int `koanf:"telemetry_queue_size"`
	WorkerCount        int `koanf:"worker_count"`

	// CatalogPath points at a YAML fixture of chapter metadata. Empty
	// starts the service with an empty catalog.
	CatalogPath string `koanf:"catalog_path"`

	// Upload signing.
	Upload UploadConfig `koanf:"upload"`

	// Object storage credentials and addressing.
	Storage StorageConfig `koanf:"storage"`
}

// TrackerConfig holds the reading-validity thresholds.
type TrackerConfig struct {
	// TickIntervalSec is the active-time accrual tick, in seconds.
	TickIntervalSec int `koanf:"tick_interval_sec"`

	// InactivityWindowSec freezes accrual once the reader has been idle
	// longer than this.
	InactivityWindowSec int `koanf:"inactivity_window_sec"`

	// MinActiveSec is the minimum accumulated active time for a valid read.
	MinActiveSec int `koanf:"min_active_sec"`

	// MinScrollPct is the minimum scroll high-water mark for a valid read.
	MinScrollPct float64 `koanf:"min_scroll_pct"`

	// MinImageRatio is the minimum imagesSeen/totalImages for a valid read.
	MinImageRatio float64 `koanf:"min_image_ratio"`
}

// UploadConfig holds signing-endpoint policy.
type UploadConfig struct {
	// Secret is the shared secret presented in x-comite-secret.
	Secret string `koanf:"secret"`

	// AllowedRoles may request upload URLs.
	AllowedRoles []string `koanf:"allowed_roles"`

	// AllowedTypes is the content-type allow-list.
	AllowedTypes []string `koanf:"allowed_types"`

	// MaxBytes caps the advisory contentLength.
	MaxBytes int64 `koanf:"max_bytes"`

	// ExpirySec is the presigned URL lifetime in seconds.
	ExpirySec int `koanf:"expiry_sec"`

	// CacheControl is signed into the upload so objects land with a
	// long-lived caching directive.
	CacheControl string `koanf:"cache_control"`

	// AllowedOrigins is the CORS allow-list; empty means echo "*".
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RateLimitWindowSec and RateLimitMax bound per-IP signing requests.
	RateLimitWindowSec int `koanf:"rate_limit_window_sec"`
	RateLimitMax       int `koanf:"rate_limit_max"`
}

// StorageConfig addresses the S3-compatible bucket uploads land in.
type StorageConfig struct {
	Endpoint      string `koanf:"endpoint"`
	Region        string `koanf:"region"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	Bucket        string `koanf:"bucket"`
	UseSSL        bool   `koanf:"use_ssl"`
	PublicBaseURL string `koanf:"public_base_url"`
}

// New creates a Config with defaults. Context is accepted first per the
// project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",
		Tracker: TrackerConfig{
			TickIntervalSec:     5,
			InactivityWindowSec: 15,
			MinActiveSec:        45,
			MinScrollPct:        80,
			MinImageRatio:       0.70,
		},
		TelemetryQueueSize: 10_000,
		WorkerCount:        4,
		Upload: UploadConfig{
			AllowedRoles: []string{"owner", "admin", "editor"},
			AllowedTypes: []string{
				"image/jpeg",
				"image/png",
				"image/webp",
				"image/gif",
				"image/avif",
			},
			MaxBytes:           10 << 20,
			ExpirySec:          60,
			CacheControl:       "public, max-age=31536000, immutable",
			RateLimitWindowSec: 60,
			RateLimitMax:       20,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			UseSSL: true,
		},
	}
}
