package imagerelay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAccept      = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	defaultContentType = "image/jpeg"
)

// Config holds image relay settings
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBytes     int64
	AllowedHosts []string // host suffixes; empty allows any host
}

// Fetcher retrieves upstream product images with browser-like headers
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
	allowedHosts []string
}

// NewFetcher creates an image fetcher
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	hosts := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		userAgent:    cfg.UserAgent,
		maxBytes:     cfg.MaxBytes,
		allowedHosts: hosts,
	}
}

// Fetch opens the image at imageURL. The caller closes the returned body.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (io.ReadCloser, string, error) {
	u, err := f.validate(imageURL)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		logging.Warn().Err(err).Str("url", imageURL).Msg("[IMG] upstream request failed")
		return nil, "", fmt.Errorf("%w: %v", domain.ErrUpstreamImage, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		logging.Warn().Int("status", resp.StatusCode).Str("url", imageURL).Msg("[IMG] upstream returned an error status")
		return nil, "", fmt.Errorf("%w: status %d", domain.ErrUpstreamImage, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return limitedBody{Reader: io.LimitReader(resp.Body, f.maxBytes), Closer: resp.Body}, contentType, nil
}

// validate accepts absolute http(s) URLs on an allowed host
func (f *Fetcher) validate(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: image url must be absolute http(s)", domain.ErrInvalidRequest)
	}
	if len(f.allowedHosts) == 0 {
		return u, nil
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range f.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: image host %q not allowed", domain.ErrInvalidRequest, host)
}

type limitedBody struct {
	io.Reader
	io.Closer
}
