package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jdpanel/pkg/logger"
)

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agenda/bookings", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		req.Header.Set(ScopeHeader, "tenant-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status = %d, want 201", i, rec.Code)
		}
		if rec.Body.String() != `{"data":"ok"}` {
			t.Fatalf("attempt %d: body = %q", i, rec.Body.String())
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}
}

func TestIdempotency_ScopedByTenant(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	for _, tenant := range []string{"tenant-1", "tenant-2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agenda/bookings", nil)
		req.Header.Set(IdempotencyHeader, "same-key")
		req.Header.Set(ScopeHeader, tenant)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(IdempotencyHeader, "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}
}

func TestTenantRateLimiter(t *testing.T) {
	rl := NewTenantRateLimiter(2, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	if !rl.Allow("t1") || !rl.Allow("t1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("t1") {
		t.Error("third request inside the window should be rejected")
	}
	if !rl.Allow("t2") {
		t.Error("other tenants have their own bucket")
	}
	if !rl.Allow("") {
		t.Error("requests without a key are not limited")
	}
}

func TestTenantRateLimit_Rejects(t *testing.T) {
	rl := NewTenantRateLimiter(1, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	h := TenantRateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/agenda/bookings", nil)
		req.Header.Set(ScopeHeader, "t1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusOK},
		{"bodyless post passes", http.MethodPost, "", "", http.StatusOK},
		{"json post passes", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form post rejected", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"patch without header rejected", http.MethodPatch, `{}`, "", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("too long")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestWebhookSignatureVerification(t *testing.T) {
	const secret = "whsec"
	body := `{"triggerEvent":"BOOKING_CREATED"}`
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	valid := hex.EncodeToString(mac.Sum(nil))

	var seenBody string
	h := WebhookSignatureVerification(secret, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name      string
		signature string
		want      int
	}{
		{"valid", valid, http.StatusOK},
		{"valid with prefix", "sha256=" + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", strings.Repeat("0", 64), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenBody = ""
			req := httptest.NewRequest(http.MethodPost, "/webhooks", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(WebhookSignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && seenBody != body {
				t.Errorf("body not restored for next handler, got %q", seenBody)
			}
		})
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-42" {
		t.Errorf("request id in context = %q, want req-42", seen)
	}
	if rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("response header = %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRejections_UseErrorEnvelope(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contacts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNSUPPORTED_MEDIA_TYPE"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequestTimeout(t *testing.T) {
	t.Run("slow handler gets 504", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			_, _ = w.Write([]byte("late"))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agenda/slots", nil))

		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("status = %d, want 504", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"TIMEOUT"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("fast handler keeps its headers", func(t *testing.T) {
		h := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Custom", "1")
			w.WriteHeader(http.StatusCreated)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

		if rec.Code != http.StatusCreated || rec.Header().Get("X-Custom") != "1" {
			t.Errorf("status = %d, header = %q", rec.Code, rec.Header().Get("X-Custom"))
		}
	})

	t.Run("panic reaches recovery", func(t *testing.T) {
		h := Recovery(logger.Discard())(RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestIdempotency_MarksReplay(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/contacts", nil)
		req.Header.Set(IdempotencyHeader, " k1 ")
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Header().Get(ReplayedHeader) != "true" {
		t.Error("second response should be marked as replayed")
	}
}
