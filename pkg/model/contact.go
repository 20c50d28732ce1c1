package model

import "time"

const (
	DefaultLeadOrigin   = "Manual (CRM)"
	DefaultFunnelStage  = "Triagem"
	DefaultInterest     = "manutenção"
	FollowUpFunnelStage = "Follow-up"
	DefaultBookingName  = "Cliente JD"
	BookingEmailDomain  = "jdprotese.com"
)

type ScoreBand string

const (
	ScoreHigh   ScoreBand = "high"
	ScoreMedium ScoreBand = "medium"
	ScoreLow    ScoreBand = "low"
)

func BandFor(score int) ScoreBand {
	switch {
	case score >= 80:
		return ScoreHigh
	case score >= 40:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

// Contact is a lead or client record of the CRM.
type Contact struct {
	ID              string     `json:"id"`
	Name            *string    `json:"nome" validate:"omitempty,min=2,max=120"`
	Phone           string     `json:"telefone" validate:"required,min=8,max=32"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	LeadOrigin      string     `json:"origem_lead" validate:"omitempty,max=60"`
	LeadScore       int        `json:"lead_score" validate:"min=0,max=100"`
	FunnelStage     string     `json:"fase_funil" validate:"omitempty,max=60"`
	CurrentInterest string     `json:"interesse_atual" validate:"omitempty,max=120"`
	LastInteraction *time.Time `json:"ultima_interacao,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DisplayName returns the contact name or "" when it was never captured.
func (c Contact) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// TechnicalFile is the prosthesis record kept for a contact.
type TechnicalFile struct {
	ContactID        string     `json:"contato_id"`
	BaseModel        *string    `json:"modelo_base,omitempty" validate:"omitempty,max=120"`
	HairColor        *string    `json:"cor_cabelo,omitempty" validate:"omitempty,max=60"`
	FixationType     *string    `json:"tipo_fixacao,omitempty" validate:"omitempty,max=60"`
	LastPurchaseDate *time.Time `json:"data_ultima_compra_protese,omitempty"`
}

// MemoryNote is a long-term note about a contact, ranked by relevance.
type MemoryNote struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contato_id"`
	Category  string    `json:"categoria"`
	Content   string    `json:"conteudo"`
	Relevance int       `json:"relevancia"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactDetails struct {
	Contact       Contact        `json:"contato"`
	ScoreBand     ScoreBand      `json:"score_band"`
	TimeZone      string         `json:"time_zone"`
	TechnicalFile *TechnicalFile `json:"ficha_tecnica"`
	Memories      []MemoryNote   `json:"memorias"`
}

type ContactStats struct {
	NewLeads      int64 `json:"novos_leads"`
	FollowUpCount int64 `json:"follow_up"`
}
