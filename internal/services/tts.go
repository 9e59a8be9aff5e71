package services

import "context"

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers
// Both ElevenLabs and Cartesia implement this interface so the worker
// can use whichever is configured without knowing the underlying provider.
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData  []byte
	DurationMs int
	Format     string // "mp3", "wav", etc.
}

// Persona describes a narration voice. Each persona maps to a concrete
// voice ID per provider plus a delivery style the provider may interpret.
type Persona struct {
	Name              string
	Style             string // human-readable delivery description, e.g. "warm, friendly, and engaging"
	ElevenLabsVoiceID string
	CartesiaVoiceID   string
}

// Personas is the narration voice catalog. Every generated package is
// assigned one of these so batches of daily videos don't all sound identical.
var Personas = []Persona{
	{
		Name:              "tiktok_girl",
		Style:             "bright, fast, and excited, like sharing a find with a friend",
		ElevenLabsVoiceID: "jsCqWAovK2LkecY7zXl4",
		CartesiaVoiceID:   "b7d50908-b17c-442d-ad8d-810c63997ed9",
	},
	{
		Name:              "tiktok_boy",
		Style:             "upbeat, casual, and a little cheeky",
		ElevenLabsVoiceID: "TxGEqnHWrfWFTfGW9XjX",
		CartesiaVoiceID:   "a167e0f3-df7e-4d52-a9c3-f949145efdab",
	},
	{
		Name:              "storyteller",
		Style:             "warm and narrative, drawing the listener in",
		ElevenLabsVoiceID: "EXAVITQu4vr4xnSDxMaL",
		CartesiaVoiceID:   "79a125e8-cd45-4c13-8a67-188112f4dd22",
	},
	{
		Name:              "energetic",
		Style:             "high-energy and punchy, every line lands",
		ElevenLabsVoiceID: "pNInz6obpgDQGcFmaJgB",
		CartesiaVoiceID:   "248be419-c632-4f23-adf1-5324ed7dbf1d",
	},
	{
		Name:              "calm_affiliate",
		Style:             "calm, reassuring, and confident, a trusted recommendation",
		ElevenLabsVoiceID: "onwK4e9ZLuTAKqWW03F9",
		CartesiaVoiceID:   "a0e99841-438c-4a64-b679-ae501e7d6091",
	},
}

// PickPersona selects a persona deterministically from a seed. The daily
// run seeds this with the package index so reruns produce the same voice.
func PickPersona(seed int64) Persona {
	if seed < 0 {
		seed = -seed
	}
	return Personas[seed%int64(len(Personas))]
}

// PersonaByName looks up a persona by name, falling back to the first
// catalog entry when the name is unknown or empty.
func PersonaByName(name string) Persona {
	for _, p := range Personas {
		if p.Name == name {
			return p
		}
	}
	return Personas[0]
}

// TTSService is the interface that any TTS provider must implement.
type TTSService interface {
	// GenerateSpeech converts text to audio using the given persona.
	// Providers resolve the persona to their own voice ID and may map its
	// style description onto provider-specific delivery controls.
	GenerateSpeech(ctx context.Context, text string, persona Persona) (*TTSResponse, error)
}
