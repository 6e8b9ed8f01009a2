// Package tts defines the interface for text-to-speech synthesis.
//
// qrforge uses TTS for the audio preview of symbol text and for the service's
// /generate-audio endpoint.
package tts

import "context"

// Voice is a synthesis voice offered by a backend.
type Voice struct {
	// Name is the display name (e.g., "en_US-lessac-medium", "Google UK English Female").
	Name string

	// Language is a BCP-47 style tag (e.g., "en-US", "en_GB", "fr").
	Language string
}

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the language tag used to pick a default voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string

	// Rate is the playback speed multiplier; 0 means 1.
	Rate float64
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates audio as a WAV file from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Voices lists the voices the backend currently offers. The list may be
	// empty while the backend is still loading.
	Voices(ctx context.Context) ([]Voice, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}
