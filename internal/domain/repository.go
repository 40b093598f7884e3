package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque serialized bytes.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogSearcher runs a free-text search against the product catalog.
// Implementations may return an error; the pipeline treats any error as zero results.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]CatalogProduct, error)
}

// ChargeService creates and inspects PIX charges
type ChargeService interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	ChargeStatus(ctx context.Context, chargeID string) (string, error)
}

// LeadSink persists a captured lead
type LeadSink interface {
	SubmitLead(ctx context.Context, lead Lead) error
}

// ImageFetcher retrieves an upstream image for the relay endpoint
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) (io.ReadCloser, string, error)
}
