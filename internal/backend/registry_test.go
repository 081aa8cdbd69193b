package backend

import (
	"context"
	"testing"
)

type stubBackend struct{}

func (stubBackend) Health(context.Context) (*HealthStatus, error) { return nil, nil }
func (stubBackend) ExtractVoice(context.Context, string, string, string) (*VoiceInfo, error) {
	return nil, nil
}
func (stubBackend) Synthesize(context.Context, *SynthesizeRequest) ([]byte, error) {
	return nil, nil
}
func (stubBackend) ListVoices(context.Context) ([]VoiceInfo, error) { return nil, nil }
func (stubBackend) DeleteVoice(context.Context, string) error       { return nil }

func TestRegister(t *testing.T) {
	const fake = Protocol("fake-protocol")
	if Registered(fake) {
		t.Fatal("fake protocol registered before Register")
	}

	Register(fake, func(Model, string, map[string]string) (Backend, error) {
		return stubBackend{}, nil
	})

	if !Registered(fake) {
		t.Fatal("fake protocol not registered after Register")
	}
}

func TestNewUnregisteredProtocol(t *testing.T) {
	// The strategy packages register via init() from their own packages;
	// nothing imports them here, so direct-protocol resolution must fail
	// cleanly.
	if _, err := New(ModelOpenVoice, "localhost", nil); err == nil {
		t.Error("expected an error for an unregistered protocol")
	}
}
