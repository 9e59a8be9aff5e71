package models

import (
	"encoding/json"
	"testing"
)

func TestJSONBMarshal(t *testing.T) {
	j := JSONB{
		"specs": []string{"hero", "pinterest"},
		"mood":  "warm",
	}

	data, err := j.Value()
	if err != nil {
		t.Fatalf("failed to marshal JSONB: %v", err)
	}

	if data == nil {
		t.Fatal("expected non-nil data")
	}

	// Verify it's valid JSON
	var result map[string]interface{}
	if err := json.Unmarshal(data.([]byte), &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if result["mood"] != "warm" {
		t.Errorf("expected mood=warm, got %v", result["mood"])
	}
}

func TestJSONBScan(t *testing.T) {
	jsonData := []byte(`{"color": "blue", "size": 10}`)

	var j JSONB
	if err := j.Scan(jsonData); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}

	if j["color"] != "blue" {
		t.Errorf("expected color=blue, got %v", j["color"])
	}

	if j["size"].(float64) != 10 {
		t.Errorf("expected size=10, got %v", j["size"])
	}
}

func TestStringListRoundTrip(t *testing.T) {
	l := StringList{"#giftideas", "#birthdaygifts"}

	data, err := l.Value()
	if err != nil {
		t.Fatalf("failed to marshal StringList: %v", err)
	}

	var out StringList
	if err := out.Scan(data); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}

	if len(out) != 2 || out[0] != "#giftideas" {
		t.Errorf("expected round-tripped list, got %v", out)
	}
}

func TestStringListNilMarshalsAsEmptyArray(t *testing.T) {
	var l StringList

	data, err := l.Value()
	if err != nil {
		t.Fatalf("failed to marshal nil StringList: %v", err)
	}

	if string(data.([]byte)) != "[]" {
		t.Errorf("expected [], got %s", data)
	}
}

func TestTopicHash(t *testing.T) {
	base := TopicHash("personalised birthday gifts")

	// Case and surrounding whitespace must not change the hash
	variants := []string{
		"Personalised Birthday Gifts",
		"  personalised birthday gifts  ",
		"PERSONALISED BIRTHDAY GIFTS",
	}
	for _, v := range variants {
		if TopicHash(v) != base {
			t.Errorf("expected %q to hash like the base topic", v)
		}
	}

	if TopicHash("gifts for dog lovers") == base {
		t.Error("different topics must not collide")
	}

	if len(base) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(base))
	}
}

func TestOccasionValid(t *testing.T) {
	for _, occ := range Occasions {
		if !occ.Valid() {
			t.Errorf("catalog occasion %q reported invalid", occ)
		}
	}

	if Occasion("halloween").Valid() {
		t.Error("expected unknown occasion to be invalid")
	}
}

func TestPlatformValid(t *testing.T) {
	for _, p := range Platforms {
		if !p.Valid() {
			t.Errorf("catalog platform %q reported invalid", p)
		}
	}

	if Platform("myspace").Valid() {
		t.Error("expected unknown platform to be invalid")
	}
}

func TestPackageStatus(t *testing.T) {
	statuses := []PackageStatus{
		PackageStatusPending,
		PackageStatusGenerating,
		PackageStatusRendering,
		PackageStatusDelivering,
		PackageStatusDelivered,
		PackageStatusFailed,
	}

	for _, status := range statuses {
		if status == "" {
			t.Errorf("empty status found")
		}
	}
}

func TestClipCategories(t *testing.T) {
	if len(ClipCategories) != 3 {
		t.Fatalf("expected 3 clip categories, got %d", len(ClipCategories))
	}

	for _, category := range ClipCategories {
		if category == "" {
			t.Errorf("empty category found")
		}
	}
}
