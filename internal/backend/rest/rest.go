// Package rest implements the direct REST protocol spoken by the OpenVoice
// V2 and OpenF5-TTS servers. Every capability maps onto exactly one HTTP
// call; there is no job lifecycle.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/opentts/opentts/internal/backend"
	"github.com/opentts/opentts/internal/backend/restutil"
)

func init() {
	backend.Register(backend.ProtocolDirect, func(model backend.Model, host string, _ map[string]string) (backend.Backend, error) {
		return New(model, host), nil
	})
}

// Client speaks the direct REST protocol against one model server.
type Client struct {
	model   backend.Model
	baseURL string
}

// New creates a direct REST client for the model server on host.
func New(model backend.Model, host string) *Client {
	return &Client{
		model:   model,
		baseURL: fmt.Sprintf("http://%s:%d", host, model.Port()),
	}
}

// BaseURL returns the server base URL this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Health(ctx context.Context) (*backend.HealthStatus, error) {
	var status backend.HealthStatus
	if err := restutil.DoJSON(ctx, http.MethodGet, c.baseURL+"/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ExtractVoice(ctx context.Context, audioPath, transcript, name string) (*backend.VoiceInfo, error) {
	// The local file is read before any network call is attempted.
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrFileNotFound, audioPath)
	}

	fileName := filepath.Base(audioPath)
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = "audio.wav"
	}

	fields := map[string]string{"transcript": transcript}
	if name != "" {
		fields["name"] = name
	}

	data, err := restutil.DoMultipart(ctx, c.baseURL+"/extract_voice", restutil.File{
		Field:   "audio",
		Name:    fileName,
		MIME:    "audio/wav",
		Content: audio,
	}, fields)
	if err != nil {
		return nil, err
	}

	var info backend.VoiceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: decode voice: %v", backend.ErrInvalidResponse, err)
	}
	return &info, nil
}

// Synthesize POSTs the request as JSON and returns the raw audio body.
// The reference fields are excluded from the wire payload entirely.
func (c *Client) Synthesize(ctx context.Context, req *backend.SynthesizeRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	return restutil.DoRaw(ctx, http.MethodPost, c.baseURL+"/synthesize", "application/json", bytes.NewReader(body))
}

func (c *Client) ListVoices(ctx context.Context) ([]backend.VoiceInfo, error) {
	var resp struct {
		Voices []backend.VoiceInfo `json:"voices"`
	}
	if err := restutil.DoJSON(ctx, http.MethodGet, c.baseURL+"/voices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Voices, nil
}

func (c *Client) DeleteVoice(ctx context.Context, name string) error {
	_, err := restutil.DoRaw(ctx, http.MethodDelete, c.baseURL+"/voices/"+url.PathEscape(name), "", nil)

	var se *restutil.StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", backend.ErrVoiceNotFound, name)
	}
	return err
}
