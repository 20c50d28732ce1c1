package validator

import (
	"errors"
	"strings"
	"testing"

	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

func TestValidateInfo(t *testing.T) {
	v := NewProfileValidator(logger.Discard())

	tests := []struct {
		name      string
		input     model.ProfileInfoInput
		wantField string
	}{
		{"empty is fine", model.ProfileInfoInput{}, ""},
		{"bare host logo", model.ProfileInfoInput{CompanyName: "JD Próteses", LogoURL: "cdn.example.com/logo.png"}, ""},
		{"name too long", model.ProfileInfoInput{CompanyName: strings.Repeat("x", 121)}, "CompanyName"},
		{"unparseable logo", model.ProfileInfoInput{LogoURL: "http://"}, "LogoURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInfo(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs) != 1 || verrs[0].Field != tt.wantField {
				t.Errorf("errors = %v, want one on %s", verrs, tt.wantField)
			}
		})
	}
}

func TestValidateIntegrations(t *testing.T) {
	v := NewProfileValidator(logger.Discard())
	str := func(s string) *string { return &s }

	if err := v.ValidateIntegrations(&model.IntegrationsInput{CalAPIKey: str("cal_live_123")}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := v.ValidateIntegrations(&model.IntegrationsInput{CustomStoreURL: str("")}); err != nil {
		t.Errorf("clearing the url should be valid, got %v", err)
	}
	if err := v.ValidateIntegrations(&model.IntegrationsInput{CalAPIKey: str(strings.Repeat("k", 257))}); err == nil {
		t.Error("expected error for oversized key")
	}
}
