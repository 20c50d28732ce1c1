package model

import "time"

// Profile holds a tenant's branding and integration credentials.
// Secret fields are sealed before they reach storage.
type Profile struct {
	ID             string    `json:"id" bson:"_id"`
	CompanyName    string    `json:"company_name" bson:"company_name"`
	LogoURL        string    `json:"logo_url" bson:"logo_url"`
	CalAPIKey      string    `json:"-" bson:"cal_api_key"`
	CustomStoreURL string    `json:"custom_store_url" bson:"custom_store_url"`
	CustomStoreKey string    `json:"-" bson:"custom_store_key"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// ProfileView is what the API returns: secrets reduced to presence flags.
type ProfileView struct {
	ID                string    `json:"id"`
	CompanyName       string    `json:"company_name"`
	LogoURL           string    `json:"logo_url"`
	CalAPIKeySet      bool      `json:"cal_api_key_set"`
	CustomStoreURL    string    `json:"custom_store_url"`
	CustomStoreKeySet bool      `json:"custom_store_key_set"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (p Profile) View() ProfileView {
	return ProfileView{
		ID:                p.ID,
		CompanyName:       p.CompanyName,
		LogoURL:           p.LogoURL,
		CalAPIKeySet:      p.CalAPIKey != "",
		CustomStoreURL:    p.CustomStoreURL,
		CustomStoreKeySet: p.CustomStoreKey != "",
		UpdatedAt:         p.UpdatedAt,
	}
}

type ProfileInfoInput struct {
	CompanyName string `json:"company_name"`
	LogoURL     string `json:"logo_url" validate:"omitempty,max=2048"`
}

// IntegrationsInput updates integration credentials. A nil field is left
// untouched; an empty string clears the stored value.
type IntegrationsInput struct {
	CalAPIKey      *string `json:"cal_api_key" validate:"omitempty,max=256"`
	CustomStoreURL *string `json:"custom_store_url" validate:"omitempty,max=2048"`
	CustomStoreKey *string `json:"custom_store_key" validate:"omitempty,max=1024"`
}
