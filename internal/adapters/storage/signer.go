// Package storage produces time-boxed presigned upload URLs for an
// S3-compatible bucket and the deterministic public URLs objects are
// served from afterwards.
package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/valetivivek/comite/internal/domain/model"
)

// Signer authorizes direct-to-bucket uploads.
type Signer interface {
	// PresignUpload returns a single-use, time-boxed PUT URL for key
	// along with the public URL the object will be readable at.
	PresignUpload(ctx context.Context, key, contentType string) (model.SignedUpload, error)

	// PublicURL returns the CDN-facing URL for key.
	PublicURL(key string) string
}

// joinPublicURL joins a public base URL with an escaped object key.
// Escaping matches encodeURI semantics for paths: segment characters
// are percent-encoded but slashes survive.
func joinPublicURL(base, key string) string {
	escaped := (&url.URL{Path: "/" + strings.TrimPrefix(key, "/")}).EscapedPath()
	return strings.TrimSuffix(base, "/") + escaped
}
