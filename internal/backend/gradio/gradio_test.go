package gradio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/opentts/opentts/internal/backend"
)

// jobServer scripts the queued protocol: it accepts uploads and job
// submissions and serves the given poll responses in order, repeating the
// last one once the script is exhausted.
type jobServer struct {
	*httptest.Server

	pollResponses []string
	polls         atomic.Int32
	uploads       atomic.Int32
	submitBody    atomic.Value // json payload of the last submission
}

func newJobServer(t *testing.T, pollResponses []string) *jobServer {
	t.Helper()

	js := &jobServer{pollResponses: pollResponses}
	mux := http.NewServeMux()

	mux.HandleFunc(uploadPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		js.uploads.Add(1)
		fmt.Fprint(w, `["/tmp/gradio/upload/ref.wav"]`)
	})
	mux.HandleFunc(callPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		js.submitBody.Store(payload)
		fmt.Fprint(w, `{"event_id": "ev-42"}`)
	})
	mux.HandleFunc(callPath+"/ev-42", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		n := int(js.polls.Add(1)) - 1
		if n >= len(js.pollResponses) {
			n = len(js.pollResponses) - 1
		}
		w.Header().Set("Content-Type", "text/event-stream")
		body := strings.ReplaceAll(js.pollResponses[n], "{{base}}", js.URL)
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("RIFF fake wav data"))
	})

	js.Server = httptest.NewServer(mux)
	t.Cleanup(js.Close)
	return js
}

// testClient targets the scripted server with a zero poll interval.
func testClient(js *jobServer) *Client {
	return &Client{
		model:        backend.ModelVoxCPM,
		baseURL:      js.URL,
		pollInterval: 0,
		pollAttempts: 5,
	}
}

func writeRefAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.wav")
	if err := os.WriteFile(path, []byte("RIFF ref"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSynthesizeCompletes(t *testing.T) {
	js := newJobServer(t, []string{
		"event: generating\ndata: null\n",
		"event: complete\ndata: [{\"url\": \"{{base}}/result\"}]\n",
	})
	c := testClient(js)

	audio, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{
		Text:                "Hello world",
		Speed:               1.0,
		ReferenceAudio:      writeRefAudio(t),
		ReferenceTranscript: "reference words",
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio) != "RIFF fake wav data" {
		t.Errorf("got audio %q", audio)
	}

	if n := js.uploads.Load(); n != 1 {
		t.Errorf("expected 1 upload, got %d", n)
	}

	// The submission parameter array is a server contract: order and the
	// fixed scalars must be preserved exactly.
	payload := js.submitBody.Load().(map[string]any)
	data, ok := payload["data"].([]any)
	if !ok || len(data) != 6 {
		t.Fatalf("submission data = %#v, want 6-element array", payload["data"])
	}
	if data[0] != "Hello world" {
		t.Errorf("data[0] = %#v", data[0])
	}
	if data[1] != "/tmp/gradio/upload/ref.wav" {
		t.Errorf("data[1] = %#v, want uploaded server path", data[1])
	}
	if data[2] != "reference words" {
		t.Errorf("data[2] = %#v", data[2])
	}
	if data[3] != 2.0 || data[4] != float64(10) || data[5] != false {
		t.Errorf("fixed parameters changed: %#v", data[3:])
	}
}

func TestSynthesizeWithoutReference(t *testing.T) {
	js := newJobServer(t, []string{
		"event: complete\ndata: [{\"url\": \"{{base}}/result\"}]\n",
	})
	c := testClient(js)

	if _, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{Text: "Hi", Speed: 1.0}); err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if n := js.uploads.Load(); n != 0 {
		t.Errorf("expected no upload without reference audio, got %d", n)
	}

	payload := js.submitBody.Load().(map[string]any)
	data := payload["data"].([]any)
	if data[1] != nil {
		t.Errorf("data[1] = %#v, want null", data[1])
	}
	if data[2] != "" {
		t.Errorf("data[2] = %#v, want empty transcript", data[2])
	}
}

func TestSynthesizeJobError(t *testing.T) {
	js := newJobServer(t, []string{
		"event: generating\ndata: null\n",
		"event: error\ndata: null\n",
	})
	c := testClient(js)

	_, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{Text: "Hi", Speed: 1.0})
	if !errors.Is(err, backend.ErrBackend) {
		t.Fatalf("got %v, want ErrBackend", err)
	}
	if n := js.polls.Load(); n != 2 {
		t.Errorf("polled %d times, want 2 (error terminates immediately)", n)
	}
}

func TestSynthesizeTimeout(t *testing.T) {
	js := newJobServer(t, []string{
		"event: generating\ndata: null\n",
	})
	c := testClient(js)

	_, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{Text: "Hi", Speed: 1.0})
	if !errors.Is(err, backend.ErrRequestFailed) {
		t.Fatalf("got %v, want ErrRequestFailed", err)
	}
	if n := js.polls.Load(); int(n) != c.pollAttempts {
		t.Errorf("polled %d times, want exactly %d", n, c.pollAttempts)
	}
}

func TestSynthesizeCompleteWithoutURL(t *testing.T) {
	js := newJobServer(t, []string{
		"event: complete\ndata: []\n",
	})
	c := testClient(js)

	_, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{Text: "Hi", Speed: 1.0})
	if !errors.Is(err, backend.ErrInvalidResponse) {
		t.Fatalf("got %v, want ErrInvalidResponse", err)
	}
}

func TestSynthesizeMissingReferenceFile(t *testing.T) {
	js := newJobServer(t, nil)
	c := testClient(js)

	_, err := c.Synthesize(context.Background(), &backend.SynthesizeRequest{
		Text:           "Hi",
		Speed:          1.0,
		ReferenceAudio: "/nonexistent/ref.wav",
	})
	if !errors.Is(err, backend.ErrFileNotFound) {
		t.Fatalf("got %v, want ErrFileNotFound", err)
	}
	if n := js.submitBody.Load(); n != nil {
		t.Error("job was submitted despite missing reference audio")
	}
}

func TestExtractVoiceIsLocalOnly(t *testing.T) {
	// No server at all: extraction must not touch the network.
	c := New(backend.ModelVoxCPM, "localhost")

	path := writeRefAudio(t)
	info, err := c.ExtractVoice(context.Background(), path, "Hello", "my_voice")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if info.Name != "my_voice" || info.Transcript != "Hello" || info.Model != "voxcpm" {
		t.Errorf("descriptor %+v", info)
	}

	info, err = c.ExtractVoice(context.Background(), path, "Hello", "")
	if err != nil {
		t.Fatalf("extract unnamed: %v", err)
	}
	if !strings.HasPrefix(info.Name, "voice-") {
		t.Errorf("generated name %q", info.Name)
	}

	if _, err := c.ExtractVoice(context.Background(), "/nonexistent.wav", "Hello", ""); !errors.Is(err, backend.ErrFileNotFound) {
		t.Errorf("got %v, want ErrFileNotFound", err)
	}
}

func TestDegradedCapabilities(t *testing.T) {
	js := newJobServer(t, nil)
	c := testClient(js)

	voices, err := c.ListVoices(context.Background())
	if err != nil || len(voices) != 0 {
		t.Errorf("list voices = (%v, %v), want empty", voices, err)
	}

	if err := c.DeleteVoice(context.Background(), "anything"); !errors.Is(err, backend.ErrVoiceNotFound) {
		t.Errorf("delete: got %v, want ErrVoiceNotFound", err)
	}
}

func TestHealthSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"version": "5.0"}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := &Client{model: backend.ModelVoxCPM, baseURL: ts.URL}

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if status.Status != "healthy" || !status.CUDAAvailable {
		t.Errorf("snapshot %+v", status)
	}
}

func TestHealthConnectionFailed(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := &Client{model: backend.ModelVoxCPM, baseURL: url}

	if _, err := c.Health(context.Background()); !errors.Is(err, backend.ErrConnectionFailed) {
		t.Errorf("got %v, want ErrConnectionFailed", err)
	}
}
