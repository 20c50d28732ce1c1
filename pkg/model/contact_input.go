package model

// NewContactInput registers a lead from the CRM. Empty classification
// fields take the clinic defaults.
type NewContactInput struct {
	Name            string         `json:"nome" validate:"required,min=2,max=120"`
	Phone           string         `json:"telefone" validate:"required,min=8,max=32"`
	Email           string         `json:"email,omitempty" validate:"omitempty,email"`
	LeadOrigin      string         `json:"origem_lead,omitempty" validate:"omitempty,max=60"`
	FunnelStage     string         `json:"fase_funil,omitempty" validate:"omitempty,max=60"`
	CurrentInterest string         `json:"interesse_atual,omitempty" validate:"omitempty,max=120"`
	LeadScore       *int           `json:"lead_score,omitempty" validate:"omitempty,min=0,max=100"`
	TechnicalFile   *TechnicalFile `json:"ficha_tecnica,omitempty"`
}

type UpdateNameInput struct {
	Name string `json:"nome" validate:"required,min=2,max=120"`
}
