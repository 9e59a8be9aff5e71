package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", 100, 0},
		{"?limit=-3&offset=-7", 20, 0},
		{"?limit=abc&offset=xyz", 20, 0},
	}

	for _, c := range cases {
		req := httptest.NewRequest("GET", "/v1/packages"+c.query, nil)
		limit, offset := parsePagination(req)
		if limit != c.wantLimit || offset != c.wantOffset {
			t.Errorf("parsePagination(%q) = (%d, %d), want (%d, %d)",
				c.query, limit, offset, c.wantLimit, c.wantOffset)
		}
	}
}

func TestValidCategory(t *testing.T) {
	if !validCategory("florist") {
		t.Error("florist rejected")
	}
	if !validCategory("wedding_venue") {
		t.Error("wedding_venue rejected")
	}
	if validCategory("bakery") {
		t.Error("unknown category accepted")
	}
	if validCategory("") {
		t.Error("empty category accepted")
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()

	respondError(rec, http.StatusConflict, "A package for this topic already exists")

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "A package for this topic already exists" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}
