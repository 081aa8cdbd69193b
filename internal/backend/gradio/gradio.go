// Package gradio implements the queued protocol spoken by the VoxCPM
// server. Synthesis is an asynchronous job: upload the reference audio,
// submit the job, poll a per-job event stream until a terminal marker
// appears, then fetch the result artifact.
//
// The server has no durable voice concept, so the remaining capabilities
// degrade deliberately: ExtractVoice never touches the network, ListVoices
// is always empty and DeleteVoice always reports not-found.
package gradio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/opentts/opentts/internal/backend"
	"github.com/opentts/opentts/internal/backend/restutil"
)

const (
	uploadPath = "/gradio_api/upload"
	callPath   = "/gradio_api/call/generate"

	defaultPollInterval = time.Second
	defaultPollAttempts = 60
)

// Fixed generation parameters. Their position and value in the submit
// array are a contract with the server; they are not user-configurable.
const (
	cfgScale       = 2.0
	inferenceSteps = 10
	normalizeText  = false
)

func init() {
	backend.Register(backend.ProtocolQueued, func(model backend.Model, host string, config map[string]string) (backend.Backend, error) {
		c := New(model, host)
		if s := config["poll_interval_ms"]; s != "" {
			if v, err := strconv.Atoi(s); err == nil && v >= 0 {
				c.pollInterval = time.Duration(v) * time.Millisecond
			}
		}
		if s := config["poll_attempts"]; s != "" {
			if v, err := strconv.Atoi(s); err == nil && v > 0 {
				c.pollAttempts = v
			}
		}
		return c, nil
	})
}

// Client drives the queued job protocol against one Gradio server.
type Client struct {
	model        backend.Model
	baseURL      string
	pollInterval time.Duration
	pollAttempts int
}

// New creates a queued-protocol client for the model server on host.
func New(model backend.Model, host string) *Client {
	return &Client{
		model:        model,
		baseURL:      fmt.Sprintf("http://%s:%d", host, model.Port()),
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}
}

// BaseURL returns the server base URL this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes the configuration endpoint. The server exposes no
// structured health signal, so a reachable config endpoint is reported as
// a fixed healthy snapshot.
func (c *Client) Health(ctx context.Context) (*backend.HealthStatus, error) {
	if _, err := restutil.DoRaw(ctx, http.MethodGet, c.baseURL+"/config", "", nil); err != nil {
		return nil, err
	}
	return &backend.HealthStatus{
		Status:        "healthy",
		Model:         string(c.model),
		CUDAAvailable: true,
		Device:        "cuda",
	}, nil
}

// ExtractVoice performs no network call. Voice registration happens
// implicitly at synthesis time on this protocol, so this only validates
// the local file and synthesizes a descriptor from the caller's inputs.
func (c *Client) ExtractVoice(_ context.Context, audioPath, transcript, name string) (*backend.VoiceInfo, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrFileNotFound, audioPath)
	}
	if name == "" {
		name = "voice-" + xid.New().String()
	}
	return &backend.VoiceInfo{
		Name:       name,
		Transcript: transcript,
		Model:      string(c.model),
	}, nil
}

// Synthesize runs the full job lifecycle: upload, submit, poll, fetch.
// It blocks until the job reaches a terminal state or the poll budget is
// spent.
func (c *Client) Synthesize(ctx context.Context, req *backend.SynthesizeRequest) ([]byte, error) {
	var refToken any
	if req.ReferenceAudio != "" {
		token, err := c.upload(ctx, req.ReferenceAudio)
		if err != nil {
			return nil, err
		}
		refToken = token
	}

	eventID, err := c.submit(ctx, req.Text, refToken, req.ReferenceTranscript)
	if err != nil {
		return nil, err
	}

	return c.poll(ctx, eventID)
}

// ListVoices is always empty: the server never persists voices.
func (c *Client) ListVoices(context.Context) ([]backend.VoiceInfo, error) {
	return nil, nil
}

// DeleteVoice always fails: there is nothing server-side to delete.
func (c *Client) DeleteVoice(_ context.Context, name string) error {
	return fmt.Errorf("%w: %s (queued backends do not persist voices)", backend.ErrVoiceNotFound, name)
}

// upload sends the reference audio and returns the server-side path token.
func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", backend.ErrFileNotFound, audioPath)
	}

	data, err := restutil.DoMultipart(ctx, c.baseURL+uploadPath, restutil.File{
		Field:   "files",
		Name:    filepath.Base(audioPath),
		MIME:    "audio/wav",
		Content: audio,
	}, nil)
	if err != nil {
		return "", err
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return "", fmt.Errorf("%w: decode upload: %v", backend.ErrInvalidResponse, err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: upload returned no server path", backend.ErrInvalidResponse)
	}
	return paths[0], nil
}

// submit posts the job parameters and returns the job's event id.
func (c *Client) submit(ctx context.Context, text string, refToken any, refTranscript string) (string, error) {
	payload := map[string]any{
		"data": []any{text, refToken, refTranscript, cfgScale, inferenceSteps, normalizeText},
	}

	var resp struct {
		EventID string `json:"event_id"`
	}
	if err := restutil.DoJSON(ctx, http.MethodPost, c.baseURL+callPath, payload, &resp); err != nil {
		return "", err
	}
	if resp.EventID == "" {
		return "", fmt.Errorf("%w: submit returned no event id", backend.ErrInvalidResponse)
	}
	return resp.EventID, nil
}

// poll drives the job's event stream until a terminal marker appears. The
// only suspension is the fixed sleep between attempts; the cap bounds the
// attempt count, not wall-clock time.
func (c *Client) poll(ctx context.Context, eventID string) ([]byte, error) {
	statusURL := c.baseURL + callPath + "/" + eventID

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		body, err := restutil.DoRaw(ctx, http.MethodGet, statusURL, "", nil)
		if err != nil {
			return nil, err
		}

		switch ev, url := parseEventStream(string(body)); ev {
		case eventComplete:
			if url == "" {
				return nil, fmt.Errorf("%w: completion event carried no result url", backend.ErrInvalidResponse)
			}
			return restutil.DoRaw(ctx, http.MethodGet, url, "", nil)
		case eventError:
			return nil, fmt.Errorf("%w: generation job %s failed", backend.ErrBackend, eventID)
		}
	}

	return nil, fmt.Errorf("%w: job %s did not finish after %d polls", backend.ErrRequestFailed, eventID, c.pollAttempts)
}
