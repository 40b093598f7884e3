package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routinematch/backend/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *MercadoPagoClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewMercadoPagoClient(MercadoPagoConfig{BaseURL: server.URL, AccessToken: "TEST-token"})
	require.NoError(t, err)
	return client
}

func TestNewMercadoPagoClient_RequiresToken(t *testing.T) {
	_, err := NewMercadoPagoClient(MercadoPagoConfig{AccessToken: "  "})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestCreateCharge(t *testing.T) {
	var (
		got       createPaymentRequest
		auth      string
		idemKey   string
		gotMethod string
		gotPath   string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		auth = r.Header.Get("Authorization")
		idemKey = r.Header.Get("X-Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 123456789,
			"status": "pending",
			"point_of_interaction": {"transaction_data": {"qr_code": "00020126PIX", "qr_code_base64": " iVBORw0K "}}
		}`))
	})

	charge, err := client.CreateCharge(context.Background(), domain.ChargeRequest{
		Amount:      4.999,
		Description: "Desbloqueio",
		PayerName:   "Maria Souza",
		PayerEmail:  "maria@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/payments", gotPath)
	assert.Equal(t, "Bearer TEST-token", auth)
	assert.NotEmpty(t, idemKey)

	assert.Equal(t, 5.0, got.TransactionAmount)
	assert.Equal(t, "pix", got.PaymentMethodID)
	assert.Equal(t, "Maria", got.Payer.FirstName)
	assert.Equal(t, "maria@example.com", got.Payer.Email)

	assert.Equal(t, int64(123456789), charge.ID)
	assert.Equal(t, "data:image/png;base64,iVBORw0K", charge.QRCode)
	assert.Equal(t, "00020126PIX", charge.CopyPaste)
	assert.False(t, charge.Fake)
	assert.Equal(t, 4.999, charge.Amount)
	assert.Equal(t, "Desbloqueio", charge.Description)
}

func TestCreateCharge_PayerDefaults(t *testing.T) {
	var got createPaymentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})

	charge, err := client.CreateCharge(context.Background(), domain.ChargeRequest{Amount: 4.99})
	require.NoError(t, err)

	assert.Equal(t, "comprador@example.com", got.Payer.Email)
	assert.Equal(t, "Cliente", got.Payer.FirstName)
	assert.Empty(t, charge.QRCode, "no base64 image means no data URI")
}

func TestCreateCharge_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid payer"}`))
	})

	_, err := client.CreateCharge(context.Background(), domain.ChargeRequest{Amount: 4.99})
	assert.ErrorIs(t, err, domain.ErrChargeFailure)
}

func TestChargeStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"approved", `{"id": 42, "status": "approved"}`, "approved"},
		{"pending", `{"id": 42, "status": "pending"}`, "pending"},
		{"missing status", `{"id": 42}`, domain.ChargeStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_, _ = w.Write([]byte(tt.body))
			})

			status, err := client.ChargeStatus(context.Background(), "42")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, "/v1/payments/42", gotPath)
		})
	}
}

func TestChargeStatus_Errors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ChargeStatus(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = client.ChargeStatus(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrChargeFailure)
}

func TestFakeGateway(t *testing.T) {
	g := NewFakeGateway()

	charge, err := g.CreateCharge(context.Background(), domain.ChargeRequest{Amount: 4.99, Description: "Desbloqueio"})
	require.NoError(t, err)
	assert.Equal(t, int64(999999), charge.ID)
	assert.True(t, charge.Fake)
	assert.Equal(t, "000201FAKEPIX-CODIGO-COPIA-E-COLA", charge.CopyPaste)
	assert.Equal(t, 4.99, charge.Amount)
	assert.Equal(t, "Desbloqueio", charge.Description)

	status, err := g.ChargeStatus(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeStatusApproved, status)
}
