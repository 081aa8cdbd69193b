// Package engine coordinates backend calls with the local voice cache to
// implement the user-facing operations. The engine depends only on the
// backend capability interface; it never knows which protocol is in use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/opentts/opentts/internal/backend"
	"github.com/opentts/opentts/internal/voice"
)

// ErrAudioNotFound means a local audio file was missing before any
// backend call was attempted.
var ErrAudioNotFound = errors.New("audio file not found")

// Engine composes a protocol strategy with the local voice store. Each
// invocation owns its engine exclusively; operations are synchronous and
// sequential.
type Engine struct {
	backend backend.Backend
	store   *voice.Store
	now     func() time.Time
}

// New creates an engine over the given backend and voice store.
func New(b backend.Backend, store *voice.Store) *Engine {
	return &Engine{backend: b, store: store, now: time.Now}
}

// Health reports the backend's capability snapshot.
func (e *Engine) Health(ctx context.Context) (*backend.HealthStatus, error) {
	return e.backend.Health(ctx)
}

// ExtractVoice registers reference audio with the backend and caches the
// returned descriptor locally.
//
// The two phases are not transactional: when the cache write fails after
// the remote extraction succeeded, the descriptor is returned together
// with the error so the caller can report the partial failure. The remote
// side is not rolled back.
func (e *Engine) ExtractVoice(ctx context.Context, audioPath, transcript, name string) (*backend.VoiceInfo, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, audioPath)
	}

	info, err := e.backend.ExtractVoice(ctx, audioPath, transcript, name)
	if err != nil {
		return nil, err
	}

	meta := voice.Metadata{
		Name:       info.Name,
		Transcript: info.Transcript,
		Model:      info.Model,
		CreatedAt:  e.now().UTC().Format(time.RFC3339),
	}
	if err := e.store.Save(&meta); err != nil {
		return info, fmt.Errorf("voice %q extracted but caching metadata failed: %w", info.Name, err)
	}

	return info, nil
}

// Synthesize produces audio for the request. A named voice must resolve
// in the local cache first; on a miss the backend is never invoked.
func (e *Engine) Synthesize(ctx context.Context, req *backend.SynthesizeRequest) ([]byte, error) {
	if req.VoiceName != "" {
		if _, err := e.store.Load(req.VoiceName); err != nil {
			return nil, fmt.Errorf("%w: %s", backend.ErrVoiceNotFound, req.VoiceName)
		}
	}

	return e.backend.Synthesize(ctx, req)
}

// ListVoices returns the backend's view. The local cache is deliberately
// not merged in: the backend is authoritative for what can actually be
// synthesized with.
func (e *Engine) ListVoices(ctx context.Context) ([]backend.VoiceInfo, error) {
	return e.backend.ListVoices(ctx)
}

// ListLocal returns the locally cached metadata records.
func (e *Engine) ListLocal() ([]voice.Metadata, error) {
	return e.store.List()
}

// DeleteVoice removes the voice remotely, then best-effort drops the
// local cache entry. A cache entry that was never written is not an
// error; the entry is secondary to the remote state.
func (e *Engine) DeleteVoice(ctx context.Context, name string) error {
	if err := e.backend.DeleteVoice(ctx, name); err != nil {
		return err
	}

	if err := e.store.Delete(name); err != nil && !errors.Is(err, voice.ErrNotFound) {
		return err
	}
	return nil
}
