// Package backend abstracts communication with the remote TTS model servers.
//
// Two wire protocols are supported: the direct REST protocol spoken by the
// OpenVoice V2 and OpenF5-TTS servers, and the Gradio-style queued protocol
// spoken by VoxCPM. Callers depend only on the Backend interface; the
// concrete strategy is chosen once at construction time via the registry.
package backend

import "context"

// HealthStatus is a snapshot of a server's liveness and capabilities.
// It is never persisted.
type HealthStatus struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	CUDAAvailable bool   `json:"cuda_available"`
	GPU           string `json:"gpu,omitempty"`
	Device        string `json:"device"`
}

// VoiceInfo is the server-reported identity of a registered reference voice.
// Name is the unique identifying key.
type VoiceInfo struct {
	Name       string   `json:"name"`
	Transcript string   `json:"transcript"`
	Model      string   `json:"model"`
	Duration   *float64 `json:"duration,omitempty"`
}

// SynthesizeRequest holds the parameters for speech synthesis.
//
// ReferenceAudio and ReferenceTranscript are consumed by the queued
// protocol only; they are never serialized onto the direct wire.
type SynthesizeRequest struct {
	Text      string  `json:"text"`
	VoiceName string  `json:"name,omitempty"`
	Speed     float64 `json:"speed"`

	ReferenceAudio      string `json:"-"`
	ReferenceTranscript string `json:"-"`
}

// Backend is the capability interface shared by all protocol strategies.
//
// Every operation performs network I/O; ExtractVoice and Synthesize may
// additionally read a local audio file. No operation retries: a single
// failed round trip is surfaced as one of the errors in this package.
type Backend interface {
	// Health probes the server and reports its capability snapshot.
	Health(ctx context.Context) (*HealthStatus, error)

	// ExtractVoice registers reference audio with the server and returns
	// the resulting voice descriptor.
	ExtractVoice(ctx context.Context, audioPath, transcript, name string) (*VoiceInfo, error)

	// Synthesize produces an encoded waveform for the request text. The
	// bytes are opaque to this layer.
	Synthesize(ctx context.Context, req *SynthesizeRequest) ([]byte, error)

	// ListVoices enumerates the voices the server knows about.
	ListVoices(ctx context.Context) ([]VoiceInfo, error)

	// DeleteVoice removes a server-known voice.
	DeleteVoice(ctx context.Context, name string) error
}
