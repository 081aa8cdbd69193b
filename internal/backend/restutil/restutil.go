// Package restutil holds the HTTP round-trip helpers shared by the protocol
// strategies. Every helper classifies failures into the backend package's
// error taxonomy: transport failures wrap ErrConnectionFailed, non-success
// statuses surface as *StatusError (which wraps ErrRequestFailed) and
// undecodable bodies wrap ErrInvalidResponse.
package restutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/opentts/opentts/internal/backend"
)

// Synthesis on the direct servers is a single blocking call, so the client
// timeout has to cover a full model inference pass.
var client = &http.Client{Timeout: 120 * time.Second}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("request failed: HTTP %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return backend.ErrRequestFailed }

// DoJSON sends a JSON request and decodes the JSON response into dest.
// Pass nil body for body-less methods and nil dest to discard the response.
func DoJSON(ctx context.Context, method, url string, body any, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	data, err := DoRaw(ctx, method, url, contentType, bodyReader)
	if err != nil {
		return err
	}

	if dest != nil {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("%w: %v", backend.ErrInvalidResponse, err)
		}
	}
	return nil
}

// DoRaw sends a request and returns the raw response body.
func DoRaw(ctx context.Context, method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return do(req)
}

// File is a file part within a multipart upload.
type File struct {
	Field   string
	Name    string
	MIME    string
	Content []byte
}

// DoMultipart POSTs a multipart form with one file part plus optional text
// fields and returns the raw response body.
func DoMultipart(ctx context.Context, url string, file File, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// multipart.CreateFormFile pins application/octet-stream; the servers
	// want the declared audio MIME type on the file part.
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
	hdr.Set("Content-Type", file.MIME)

	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return do(req)
}

func do(req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", backend.ErrInvalidResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(data)
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}

	return data, nil
}
