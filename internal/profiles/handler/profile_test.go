package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "jdpanel/pkg/errors"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

type mockProfileService struct {
	getFunc          func(ctx context.Context, tenantID string) (*model.ProfileView, error)
	integrationsFunc func(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error)
}

func (m *mockProfileService) Get(ctx context.Context, tenantID string) (*model.ProfileView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, tenantID)
	}
	return &model.ProfileView{ID: tenantID}, nil
}

func (m *mockProfileService) UpdateInfo(ctx context.Context, tenantID string, input *model.ProfileInfoInput) (*model.ProfileView, error) {
	return &model.ProfileView{ID: tenantID, CompanyName: input.CompanyName}, nil
}

func (m *mockProfileService) UpdateIntegrations(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error) {
	if m.integrationsFunc != nil {
		return m.integrationsFunc(ctx, tenantID, input)
	}
	return &model.ProfileView{ID: tenantID}, nil
}

func (m *mockProfileService) APIKey(ctx context.Context, tenantID string) (string, error) {
	return "", nil
}

func newRouter(svc *mockProfileService) *httprouter.Router {
	router := httprouter.New()
	NewProfileHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestGet_RequiresTenant(t *testing.T) {
	router := newRouter(&mockProfileService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestGet_HidesSecrets(t *testing.T) {
	router := newRouter(&mockProfileService{
		getFunc: func(ctx context.Context, tenantID string) (*model.ProfileView, error) {
			view := model.Profile{ID: tenantID, CalAPIKey: "sealed-token"}.View()
			return &view, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(httputil.TenantHeader, "tenant-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if strings.Contains(w.Body.String(), "sealed-token") {
		t.Errorf("response leaked the stored key: %s", w.Body.String())
	}

	var resp struct {
		Data model.ProfileView `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.CalAPIKeySet || resp.Data.ID != "tenant-1" {
		t.Errorf("unexpected view: %+v", resp.Data)
	}
}

func TestUpdateIntegrations(t *testing.T) {
	svc := &mockProfileService{
		integrationsFunc: func(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error) {
			if input.CustomStoreURL != nil && *input.CustomStoreURL == "bad" {
				return nil, apperrors.Validation("Profile validation failed", nil)
			}
			return &model.ProfileView{ID: tenantID}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"clear key", `{"cal_api_key":""}`, http.StatusOK},
		{"unknown field", `{"api_key":"x"}`, http.StatusBadRequest},
		{"rejected by service", `{"custom_store_url":"bad"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/integrations", strings.NewReader(tt.body))
			req.Header.Set(httputil.TenantHeader, "tenant-1")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestUpdateIntegrations_DistinguishesNilFromEmpty(t *testing.T) {
	var got *model.IntegrationsInput
	router := newRouter(&mockProfileService{
		integrationsFunc: func(ctx context.Context, tenantID string, input *model.IntegrationsInput) (*model.ProfileView, error) {
			got = input
			return &model.ProfileView{ID: tenantID}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/integrations", strings.NewReader(`{"cal_api_key":""}`))
	req.Header.Set(httputil.TenantHeader, "tenant-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got == nil || got.CalAPIKey == nil || *got.CalAPIKey != "" {
		t.Fatalf("expected an explicit empty key, got %+v", got)
	}
	if got.CustomStoreKey != nil {
		t.Errorf("absent field should stay nil")
	}
}
