package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/valetivivek/comite/internal/config"
	"github.com/valetivivek/comite/internal/domain/model"
	"github.com/valetivivek/comite/pkg/metrics"
)

// MinioSigner implements Signer against any S3-compatible endpoint
// (Spaces, R2, MinIO, S3 itself).
type MinioSigner struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	cacheControl  string
	expiry        time.Duration
}

// NewMinioSigner builds a signer from storage configuration. Missing
// endpoint, credentials or bucket are configuration errors and fail
// here rather than per-request.
func NewMinioSigner(cfg config.StorageConfig, upload config.UploadConfig) (*MinioSigner, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, fmt.Errorf("%w: storage endpoint", ErrMissingConfig)
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, fmt.Errorf("%w: storage credentials", ErrMissingConfig)
	case cfg.Bucket == "":
		return nil, fmt.Errorf("%w: storage bucket", ErrMissingConfig)
	case cfg.PublicBaseURL == "":
		return nil, fmt.Errorf("%w: public base url", ErrMissingConfig)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientInit, err)
	}

	return &MinioSigner{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		cacheControl:  upload.CacheControl,
		expiry:        time.Duration(upload.ExpirySec) * time.Second,
	}, nil
}

// PresignUpload signs a PUT for key. The cache-control directive and the
// public-read ACL are part of the signature, so the client cannot strip
// them without invalidating the upload.
func (s *MinioSigner) PresignUpload(ctx context.Context, key, contentType string) (model.SignedUpload, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPresignLatency(float64(time.Since(start).Milliseconds()))
	}()

	headers := http.Header{
		"Content-Type":  []string{contentType},
		"Cache-Control": []string{s.cacheControl},
		"X-Amz-Acl":     []string{"public-read"},
	}
	signed, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, s.expiry, url.Values{}, headers)
	if err != nil {
		return model.SignedUpload{}, fmt.Errorf("%w: %w", ErrPresign, err)
	}

	return model.SignedUpload{
		UploadURL: signed.String(),
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresIn: int(s.expiry / time.Second),
	}, nil
}

// PublicURL returns the deterministic CDN URL for key.
func (s *MinioSigner) PublicURL(key string) string {
	return joinPublicURL(s.publicBaseURL, key)
}
