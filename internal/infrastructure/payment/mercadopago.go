package payment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
)

const (
	paymentsPath    = "/v1/payments"
	qrDataURIPrefix = "data:image/png;base64,"

	defaultPayerEmail = "comprador@example.com"
	defaultPayerName  = "Cliente"
)

// MercadoPagoConfig holds provider settings
type MercadoPagoConfig struct {
	BaseURL     string // https://api.mercadopago.com
	AccessToken string
	Timeout     time.Duration
}

// MercadoPagoClient creates PIX charges through the Mercado Pago payments API
type MercadoPagoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewMercadoPagoClient creates a client. It fails when no access token is configured.
func NewMercadoPagoClient(cfg MercadoPagoConfig) (*MercadoPagoClient, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("%w: mercado pago access token is empty", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MercadoPagoClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
	}, nil
}

type payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

type createPaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             payer   `json:"payer"`
}

type paymentResponse struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreateCharge creates a PIX payment
func (c *MercadoPagoClient) CreateCharge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	body := createPaymentRequest{
		TransactionAmount: math.Round(req.Amount*100) / 100,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		Payer: payer{
			Email:     req.PayerEmail,
			FirstName: firstName(req.PayerName),
		},
	}
	if body.Payer.Email == "" {
		body.Payer.Email = defaultPayerEmail
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment: %w", err)
	}

	var resp paymentResponse
	if err := c.do(ctx, http.MethodPost, paymentsPath, payload, &resp); err != nil {
		return nil, err
	}

	trx := resp.PointOfInteraction.TransactionData
	qr := ""
	if raw := strings.TrimSpace(trx.QRCodeBase64); raw != "" {
		qr = qrDataURIPrefix + raw
	}

	logging.Info().
		Int64("payment_id", resp.ID).
		Str("status", resp.Status).
		Msg("[PAYMENT] pix charge created")

	return &domain.Charge{
		ID:          resp.ID,
		QRCode:      qr,
		CopyPaste:   trx.QRCode,
		Amount:      req.Amount,
		Description: req.Description,
	}, nil
}

// ChargeStatus returns the provider status of a payment, "unknown" when it reports none
func (c *MercadoPagoClient) ChargeStatus(ctx context.Context, chargeID string) (string, error) {
	id := strings.TrimSpace(chargeID)
	if id == "" {
		return "", fmt.Errorf("%w: charge id is required", domain.ErrInvalidRequest)
	}

	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, paymentsPath+"/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	if resp.Status == "" {
		return domain.ChargeStatusUnknown, nil
	}
	return resp.Status, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChargeFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", domain.ErrChargeFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("body", truncate(string(body), 500)).
			Msg("[PAYMENT] provider returned an error status")
		return fmt.Errorf("%w: status %d", domain.ErrChargeFailure, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", domain.ErrChargeFailure, err)
	}
	return nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return defaultPayerName
	}
	return fields[0]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
