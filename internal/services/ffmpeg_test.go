package services

import (
	"math/rand"
	"strings"
	"testing"
)

func TestRandomHashBreakRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		hb := RandomHashBreak(rng)

		if hb.SpeedFactor < 0.99 || hb.SpeedFactor > 1.01 {
			t.Fatalf("speed factor out of range: %f", hb.SpeedFactor)
		}
		if hb.Saturation < 0.98 || hb.Saturation > 1.02 {
			t.Fatalf("saturation out of range: %f", hb.Saturation)
		}
		if hb.CropPx < 0 || hb.CropPx > 10 {
			t.Fatalf("crop out of range: %d", hb.CropPx)
		}
	}
}

func TestRandomHashBreakDeterministic(t *testing.T) {
	a := RandomHashBreak(rand.New(rand.NewSource(99)))
	b := RandomHashBreak(rand.New(rand.NewSource(99)))

	if a != b {
		t.Errorf("same seed produced different params: %+v vs %+v", a, b)
	}
}

func TestRandomVoiceVariationRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 500; i++ {
		vv := RandomVoiceVariation(rng)

		if vv.Rate < 0.95 || vv.Rate > 1.05 {
			t.Fatalf("rate out of range: %f", vv.Rate)
		}
		if vv.Pitch < 0.97 || vv.Pitch > 1.03 {
			t.Fatalf("pitch out of range: %f", vv.Pitch)
		}
	}
}

func TestBuildHashBreakFilter(t *testing.T) {
	hb := HashBreakParams{
		SpeedFactor: 1.005,
		Saturation:  0.99,
		CropPx:      4,
		HFlip:       true,
	}
	vf := buildHashBreakFilter(hb)

	if !strings.HasPrefix(vf, "hflip,") {
		t.Errorf("expected hflip first, got %q", vf)
	}
	if !strings.Contains(vf, "crop=iw-8:ih-8:4:4") {
		t.Errorf("expected edge crop, got %q", vf)
	}
	if !strings.Contains(vf, "scale=1080:1920:force_original_aspect_ratio=increase") {
		t.Errorf("expected portrait scale, got %q", vf)
	}
	if !strings.Contains(vf, "eq=saturation=0.990") {
		t.Errorf("expected saturation shift, got %q", vf)
	}
	if !strings.Contains(vf, "setpts=PTS/1.0050") {
		t.Errorf("expected speed change, got %q", vf)
	}
	if !strings.HasSuffix(vf, "fps=30,setsar=1") {
		t.Errorf("expected fps/sar normalize last, got %q", vf)
	}
}

func TestBuildHashBreakFilterNoFlipNoCrop(t *testing.T) {
	hb := HashBreakParams{SpeedFactor: 1.0, Saturation: 1.0}
	vf := buildHashBreakFilter(hb)

	if strings.Contains(vf, "hflip") {
		t.Errorf("unexpected hflip: %q", vf)
	}
	if strings.Contains(vf, "crop=iw") {
		t.Errorf("unexpected edge crop: %q", vf)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext(`Gift ideas: 50% off, don't miss`)

	if strings.Contains(got, "'") {
		t.Errorf("quote survived escaping: %q", got)
	}
	if !strings.Contains(got, `\:`) {
		t.Errorf("colon not escaped: %q", got)
	}
	if !strings.Contains(got, `\%`) {
		t.Errorf("percent not escaped: %q", got)
	}
	if !strings.Contains(got, `\,`) {
		t.Errorf("comma not escaped: %q", got)
	}
}

func TestEscapeFFmpegFilterPath(t *testing.T) {
	got := escapeFFmpegFilterPath(`C:\media\clip's.mp4`)

	if !strings.Contains(got, `\:`) {
		t.Errorf("colon not escaped: %q", got)
	}
	if !strings.Contains(got, `\\`) {
		t.Errorf("backslash not escaped: %q", got)
	}
}
