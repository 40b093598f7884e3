package leads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
)

const defaultOrigin = "site"

// WebhookConfig holds lead webhook settings
type WebhookConfig struct {
	URL     string // spreadsheet webhook endpoint
	Timeout time.Duration
}

// WebhookSink posts captured leads to a spreadsheet webhook
type WebhookSink struct {
	httpClient *http.Client
	url        string
}

// NewWebhookSink creates a sink. It fails when no webhook URL is configured.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: lead webhook url is empty", domain.ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebhookSink{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
	}, nil
}

// SubmitLead trims the lead fields and posts them as JSON.
// Name, email and phone are required; the origin defaults to "site".
func (s *WebhookSink) SubmitLead(ctx context.Context, lead domain.Lead) error {
	lead = normalizeLead(lead)
	if lead.Name == "" || lead.Email == "" || lead.Phone == "" {
		return fmt.Errorf("%w: nome, email and telefone are required", domain.ErrInvalidRequest)
	}

	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLeadSinkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		logging.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("[LEADS] webhook returned an error status")
		return fmt.Errorf("%w: status %d", domain.ErrLeadSinkFailure, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logging.Info().
		Str("origin", lead.Origin).
		Str("utm_source", lead.UTMSource).
		Msg("[LEADS] lead saved")
	return nil
}

func normalizeLead(lead domain.Lead) domain.Lead {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.TrimSpace(lead.Email)
	lead.Phone = strings.TrimSpace(lead.Phone)
	lead.Origin = strings.TrimSpace(lead.Origin)
	if lead.Origin == "" {
		lead.Origin = defaultOrigin
	}
	return lead
}
