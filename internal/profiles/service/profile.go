package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	profileserrors "jdpanel/internal/profiles/errors"
	"jdpanel/internal/profiles/repository"
	"jdpanel/internal/profiles/validator"
	"jdpanel/pkg/config"
	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/model"
	"jdpanel/pkg/sanitizer"
	"jdpanel/pkg/sealer"
)

type ProfileService interface {
	Get(ctx context.Context, tenantID string) (*model.ProfileView, error)
	UpdateInfo(ctx context.Context, tenantID string, input *model.ProfileInfoInput) (*model.ProfileView, error)
	UpdateIntegrations(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error)
	// APIKey returns the tenant's opened booking gateway key, or "" when none
	// is configured.
	APIKey(ctx context.Context, tenantID string) (string, error)
}

type profileService struct {
	repo      repository.ProfileRepository
	validator *validator.ProfileValidator
	sealer    *sealer.Sealer
	cfg       *config.Config
}

func NewProfileService(
	repo repository.ProfileRepository,
	validator *validator.ProfileValidator,
	sealer *sealer.Sealer,
	cfg *config.Config,
) ProfileService {
	return &profileService{
		repo:      repo,
		validator: validator,
		sealer:    sealer,
		cfg:       cfg,
	}
}

func (s *profileService) Get(ctx context.Context, tenantID string) (*model.ProfileView, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	profile, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, profileserrors.ErrNotFound) {
			empty := model.Profile{ID: tenantID}.View()
			return &empty, nil
		}
		s.cfg.Log.Error("Failed to retrieve profile", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve profile", err)
	}

	view := profile.View()
	return &view, nil
}

func (s *profileService) UpdateInfo(ctx context.Context, tenantID string, input *model.ProfileInfoInput) (*model.ProfileView, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}
	if err := s.validator.ValidateInfo(input); err != nil {
		return nil, apperrors.Validation("Profile validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	return s.upsert(ctx, tenantID, bson.M{
		"company_name": sanitizer.SanitizeCompanyName(input.CompanyName),
		"logo_url":     sanitizer.SanitizeURL(input.LogoURL),
	})
}

// UpdateIntegrations seals every provided secret before storing it. Fields
// left nil are not touched.
func (s *profileService) UpdateIntegrations(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}
	if err := s.validator.ValidateIntegrations(input); err != nil {
		return nil, apperrors.Validation("Profile validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	fields := bson.M{}
	if input.CalAPIKey != nil {
		sealed, err := s.sealer.Seal(strings.TrimSpace(*input.CalAPIKey))
		if err != nil {
			return nil, apperrors.Internal("Failed to seal booking gateway key", err)
		}
		fields["cal_api_key"] = sealed
	}
	if input.CustomStoreKey != nil {
		sealed, err := s.sealer.Seal(strings.TrimSpace(*input.CustomStoreKey))
		if err != nil {
			return nil, apperrors.Internal("Failed to seal store key", err)
		}
		fields["custom_store_key"] = sealed
	}
	if input.CustomStoreURL != nil {
		fields["custom_store_url"] = sanitizer.SanitizeURL(*input.CustomStoreURL)
	}

	if len(fields) == 0 {
		return s.Get(ctx, tenantID)
	}
	return s.upsert(ctx, tenantID, fields)
}

func (s *profileService) upsert(ctx context.Context, tenantID string, fields bson.M) (*model.ProfileView, error) {
	profile, err := s.repo.Upsert(ctx, tenantID, fields)
	if err != nil {
		s.cfg.Log.Error("Failed to update profile", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to update profile", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	s.cfg.Log.Info("Profile updated", "tenant_id", tenantID, "fields", keys)

	view := profile.View()
	return &view, nil
}

func (s *profileService) APIKey(ctx context.Context, tenantID string) (string, error) {
	profile, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, profileserrors.ErrNotFound) {
			return "", nil
		}
		s.cfg.Log.Error("Failed to load profile for API key", "tenant_id", tenantID, "error", err)
		return "", apperrors.Internal("Failed to load integration settings", err)
	}

	key, err := s.sealer.Open(profile.CalAPIKey)
	if err != nil {
		s.cfg.Log.Error("Stored API key cannot be opened", "tenant_id", tenantID, "error", err)
		return "", apperrors.Internal("Failed to open integration settings", profileserrors.ErrCorruptSecret)
	}
	return key, nil
}
