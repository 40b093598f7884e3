package payment

import (
	"context"

	"github.com/routinematch/backend/internal/domain"
)

const (
	fakeChargeID  = 999999
	fakeQRCode    = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAAB..."
	fakeCopyPaste = "000201FAKEPIX-CODIGO-COPIA-E-COLA"
)

// FakeGateway answers with a fixed charge that is always approved.
// Used for local runs and demos where no provider account exists.
type FakeGateway struct{}

// NewFakeGateway creates the fake gateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// CreateCharge echoes the amount and description with fixed PIX data
func (g *FakeGateway) CreateCharge(_ context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	return &domain.Charge{
		ID:          fakeChargeID,
		QRCode:      fakeQRCode,
		CopyPaste:   fakeCopyPaste,
		Fake:        true,
		Amount:      req.Amount,
		Description: req.Description,
	}, nil
}

// ChargeStatus reports every charge as approved
func (g *FakeGateway) ChargeStatus(_ context.Context, _ string) (string, error) {
	return domain.ChargeStatusApproved, nil
}
