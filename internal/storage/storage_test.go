package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateStoragePath(t *testing.T) {
	s := New("https://storage.example", "key", "assets")
	owner := uuid.MustParse("a2b51c1e-9a76-4c5a-8f2d-3e4b5a6c7d8e")

	path := s.GenerateStoragePath(owner, "video.mp4")
	if path != "a2b51c1e-9a76-4c5a-8f2d-3e4b5a6c7d8e/video.mp4" {
		t.Errorf("expected owner-prefixed path, got %q", path)
	}
}

func TestGetPublicURL(t *testing.T) {
	s := New("https://storage.example", "key", "assets")

	url := s.GetPublicURL("pkg123/hero.jpg")
	want := "https://storage.example/storage/v1/object/public/assets/pkg123/hero.jpg"
	if url != want {
		t.Errorf("expected %q, got %q", want, url)
	}
}

func TestRetryDelayBounds(t *testing.T) {
	// Each attempt doubles the base delay and adds up to 25% jitter.
	for i := 0; i < 100; i++ {
		if d := retryDelay(1); d < 1*time.Second || d > 1250*time.Millisecond {
			t.Fatalf("attempt 1: expected delay in [1s, 1.25s], got %v", d)
		}
		if d := retryDelay(3); d < 4*time.Second || d > 5*time.Second {
			t.Fatalf("attempt 3: expected delay in [4s, 5s], got %v", d)
		}
	}
}

func TestRetryDelayCapped(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := retryDelay(10)
		if d < maxRetryDelay {
			t.Fatalf("expected delay capped at no less than %v, got %v", maxRetryDelay, d)
		}
		if d > time.Duration(float64(maxRetryDelay)*1.25) {
			t.Fatalf("expected jitter within 25%% of cap, got %v", d)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	retryable := []error{
		errors.New("dial tcp: i/o timeout"),
		errors.New("read: connection reset by peer"),
		errors.New("context deadline exceeded"),
		errors.New("unexpected EOF"),
	}
	for _, err := range retryable {
		if !isRetryableError(err) {
			t.Errorf("expected %q to be retryable", err)
		}
	}

	if isRetryableError(nil) {
		t.Error("expected nil error to not be retryable")
	}
	if isRetryableError(errors.New("no such host")) {
		t.Error("expected DNS failure to not be retryable")
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, status := range []int{408, 429, 502, 503, 504} {
		if !isRetryableStatus(status) {
			t.Errorf("expected status %d to be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 404, 500} {
		if isRetryableStatus(status) {
			t.Errorf("expected status %d to not be retryable", status)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 20); got != "short" {
		t.Errorf("expected short string unchanged, got %q", got)
	}

	long := strings.Repeat("a", 50)
	got := truncate(long, 20)
	if len(got) != 23 {
		t.Errorf("expected 23 chars (20 + ellipsis), got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated string to end with ..., got %q", got)
	}
}
