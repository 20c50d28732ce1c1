package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

// Mock service for testing
type mockContactService struct {
	listFunc   func(ctx context.Context, limit int, offset int64) ([]*model.Contact, int64, error)
	createFunc func(ctx context.Context, input *model.NewContactInput) (*model.Contact, error)
	statsFunc  func(ctx context.Context, since time.Time) (*model.ContactStats, error)
	getFunc    func(ctx context.Context, id string) (*model.Contact, error)
}

func (m *mockContactService) List(ctx context.Context, limit int, offset int64) ([]*model.Contact, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*model.Contact{}, 0, nil
}

func (m *mockContactService) Search(ctx context.Context, term string, limit int) ([]*model.Contact, error) {
	return []*model.Contact{}, nil
}

func (m *mockContactService) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Contact{ID: id}, nil
}

func (m *mockContactService) Create(ctx context.Context, input *model.NewContactInput) (*model.Contact, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &model.Contact{}, nil
}

func (m *mockContactService) UpdateName(ctx context.Context, id string, input *model.UpdateNameInput) error {
	return nil
}

func (m *mockContactService) GetDetails(ctx context.Context, id string) (*model.ContactDetails, error) {
	return &model.ContactDetails{}, nil
}

func (m *mockContactService) Stats(ctx context.Context, since time.Time) (*model.ContactStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, since)
	}
	return &model.ContactStats{}, nil
}

func (m *mockContactService) Recent(ctx context.Context, n int) ([]*model.Contact, error) {
	return []*model.Contact{}, nil
}

func (m *mockContactService) TouchLastInteraction(ctx context.Context, id string, at time.Time) error {
	return nil
}

func TestGetAll_InvalidQueryParameters(t *testing.T) {
	var receivedLimit int
	var receivedOffset int64
	mockService := &mockContactService{
		listFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Contact, int64, error) {
			receivedLimit, receivedOffset = limit, offset
			return []*model.Contact{}, 0, nil
		},
	}

	handler := NewContactHandler(mockService, logger.Discard())

	tests := []struct {
		name           string
		queryString    string
		expectHTTPCode int
	}{
		{"invalid limit - alphabetic", "?limit=abc&offset=0", http.StatusBadRequest},
		{"invalid offset - alphabetic", "?limit=10&offset=xyz", http.StatusBadRequest},
		{"valid parameters", "?limit=10&offset=20", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts"+tt.queryString, nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req, httprouter.Params{})

			if w.Code != tt.expectHTTPCode {
				t.Errorf("expected status %d, got %d", tt.expectHTTPCode, w.Code)
			}
		})
	}

	if receivedLimit != 10 || receivedOffset != 20 {
		t.Errorf("expected limit=10 offset=20, got limit=%d offset=%d", receivedLimit, receivedOffset)
	}
}

func TestCreate(t *testing.T) {
	var got *model.NewContactInput
	mockService := &mockContactService{
		createFunc: func(ctx context.Context, input *model.NewContactInput) (*model.Contact, error) {
			got = input
			return &model.Contact{ID: "c-1", Phone: input.Phone}, nil
		},
	}
	router := httprouter.New()
	NewContactHandler(mockService, logger.Discard()).RegisterRoutes(router)

	body := `{"nome":"Maria","telefone":"11987654321","ficha_tecnica":{"modelo_base":"Lace"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contacts", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if got == nil || got.TechnicalFile == nil || *got.TechnicalFile.BaseModel != "Lace" {
		t.Errorf("technical file not decoded: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mockService := &mockContactService{
		getFunc: func(ctx context.Context, id string) (*model.Contact, error) {
			return nil, apperrors.NotFoundWithID("Contact", id)
		},
	}
	router := httprouter.New()
	NewContactHandler(mockService, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts/id/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, resp.Code)
	}
}

func TestStats_SinceParameter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var gotSince time.Time
	mockService := &mockContactService{
		statsFunc: func(ctx context.Context, since time.Time) (*model.ContactStats, error) {
			gotSince = since
			return &model.ContactStats{NewLeads: 3}, nil
		},
	}
	handler := NewContactHandler(mockService, logger.Discard())
	handler.now = func() time.Time { return now }

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantSince  time.Time
	}{
		{"default window", "", http.StatusOK, now.Add(-DefaultStatsWindow)},
		{"explicit since", "?since=2025-03-01T00:00:00Z", http.StatusOK, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"bad since", "?since=yesterday", http.StatusBadRequest, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSince = time.Time{}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts/stats"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.Stats(w, req, httprouter.Params{})

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !gotSince.Equal(tt.wantSince) {
				t.Errorf("expected since %v, got %v", tt.wantSince, gotSince)
			}
		})
	}
}
