package backend

import "fmt"

// Protocol identifies the wire protocol a model server speaks.
type Protocol string

const (
	// ProtocolDirect is the synchronous request/response REST variant.
	ProtocolDirect Protocol = "direct"
	// ProtocolQueued is the asynchronous submit-then-poll variant.
	ProtocolQueued Protocol = "queued"
)

// Model identifies a target TTS model server. A model is immutable after
// construction: it fixes the server port and the protocol variant.
type Model string

const (
	ModelOpenVoice Model = "openvoice"
	ModelOpenF5    Model = "openf5"
	ModelVoxCPM    Model = "voxcpm"
)

// ParseModel resolves a CLI model flag to a Model. Both the short aliases
// ("ov", "of", "vox") and the full names are accepted.
func ParseModel(s string) (Model, error) {
	switch s {
	case "ov", string(ModelOpenVoice):
		return ModelOpenVoice, nil
	case "of", string(ModelOpenF5):
		return ModelOpenF5, nil
	case "vox", string(ModelVoxCPM):
		return ModelVoxCPM, nil
	}
	return "", fmt.Errorf("unknown model %q (want ov, of or vox)", s)
}

// Port returns the server port the model listens on.
func (m Model) Port() int {
	switch m {
	case ModelOpenF5:
		return 9288
	case ModelVoxCPM:
		return 7860
	default:
		return 9280
	}
}

// Protocol returns the wire protocol variant the model's server speaks.
func (m Model) Protocol() Protocol {
	if m == ModelVoxCPM {
		return ProtocolQueued
	}
	return ProtocolDirect
}

// DisplayName returns the human-readable model name.
func (m Model) DisplayName() string {
	switch m {
	case ModelOpenF5:
		return "OpenF5-TTS"
	case ModelVoxCPM:
		return "VoxCPM"
	default:
		return "OpenVoice V2"
	}
}
