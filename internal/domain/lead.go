package domain

// Lead is a contact captured by the quiz
type Lead struct {
	Name        string `json:"nome" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"telefone" binding:"required"`
	Origin      string `json:"origem,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
}
