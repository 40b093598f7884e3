package domain

import "errors"

var (
	// ErrNoCandidates is returned when no usable product exists across all queries and bands
	ErrNoCandidates = errors.New("no usable products found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownFamily is returned when the requested product family has no ruleset
	ErrUnknownFamily = errors.New("unknown product family")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogFailure is returned when the catalog search request fails
	ErrCatalogFailure = errors.New("catalog search request failed")

	// ErrNotConfigured is returned when an optional collaborator has no configuration
	ErrNotConfigured = errors.New("service not configured")

	// ErrChargeFailure is returned when the payment provider rejects or fails a call
	ErrChargeFailure = errors.New("payment provider request failed")

	// ErrLeadSinkFailure is returned when the lead webhook fails
	ErrLeadSinkFailure = errors.New("lead webhook request failed")

	// ErrUpstreamImage is returned when the image relay cannot fetch the upstream image
	ErrUpstreamImage = errors.New("upstream image request failed")
)
