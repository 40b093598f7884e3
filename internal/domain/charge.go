package domain

// ChargeRequest asks the payment provider for a PIX charge
type ChargeRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	PayerName   string  `json:"nome,omitempty"`
	PayerEmail  string  `json:"email,omitempty"`
}

// Charge is a created PIX charge
type Charge struct {
	ID          int64   `json:"paymentId"`
	QRCode      string  `json:"qr_base64"`
	CopyPaste   string  `json:"copia_cola"`
	Fake        bool    `json:"fake"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Charge status values reported by the fake gateway
const (
	ChargeStatusApproved = "approved"
	ChargeStatusUnknown  = "unknown"
)
