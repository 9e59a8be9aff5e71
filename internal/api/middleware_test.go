package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(t *testing.T) http.Handler {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth("secret-key")(ok)
}

func TestAPIKeyAuthMissingKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/packages", nil)
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuthWrongKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/packages", nil)
	req.Header.Set("X-API-Key", "not-the-key")
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestAPIKeyAuthHeaderKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/packages", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyAuthBearerFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/packages", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyAuthHeaderBeatsBearer(t *testing.T) {
	// A wrong X-API-Key is rejected even when the bearer token is right
	req := httptest.NewRequest("GET", "/v1/packages", nil)
	req.Header.Set("X-API-Key", "wrong")
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
