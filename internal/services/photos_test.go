package services

import "testing"

func TestSpecByName(t *testing.T) {
	spec, ok := SpecByName("pinterest")
	if !ok {
		t.Fatal("pinterest spec missing")
	}
	if spec.Width != 1000 || spec.Height != 1500 {
		t.Errorf("unexpected dimensions %dx%d", spec.Width, spec.Height)
	}

	if _, ok := SpecByName("billboard"); ok {
		t.Error("unknown spec resolved")
	}
}

func TestImageSpecOrientation(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"hero", "landscape"},
		{"instagram", "square"},
		{"pinterest", "portrait"},
		{"youtube", "landscape"},
		{"podcast", "square"},
	}
	for _, c := range cases {
		spec, ok := SpecByName(c.name)
		if !ok {
			t.Fatalf("spec %q missing", c.name)
		}
		if got := spec.Orientation(); got != c.want {
			t.Errorf("%s orientation = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestGeminiAspectRatio(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"hero", "16:9"},
		{"instagram", "1:1"},
		{"pinterest", "3:4"},
		{"youtube", "16:9"},
		{"podcast", "1:1"},
	}
	for _, c := range cases {
		spec, _ := SpecByName(c.name)
		if got := spec.GeminiAspectRatio(); got != c.want {
			t.Errorf("%s ratio = %q, want %q", c.name, got, c.want)
		}
	}
}
