package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

// ErrTransient marks a recognition failure that may succeed on retry
// (network errors, server errors, rate limits). Chunked transcription
// aborts on these so the caller can retry the whole run.
var ErrTransient = errors.New("transient transcription failure")

// PermanentError marks a chunk the service rejected outright, such as audio
// it cannot decode. Retrying the same chunk would fail the same way, so
// chunked transcription degrades it to the inaudible sentinel.
type PermanentError struct {
	Status int
	Detail string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("unrecognizable audio: HTTP %d: %s", e.Status, e.Detail)
}

// Transcriber converts one audio file into text.
type Transcriber interface {
	// Transcribe returns the recognized text for the audio file.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// HTTPConfig holds settings for the HTTP transcriber.
type HTTPConfig struct {
	// Endpoint is the full URL of an OpenAI-compatible audio
	// transcriptions endpoint.
	Endpoint string

	// APIKey is the bearer token for authentication.
	APIKey string

	// Model is the recognition model identifier.
	Model string

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// HTTPTranscriber sends audio to an OpenAI-compatible speech-to-text
// endpoint as multipart form data.
type HTTPTranscriber struct {
	config     HTTPConfig
	httpClient *http.Client
}

// NewHTTPTranscriber creates an HTTPTranscriber.
func NewHTTPTranscriber(config HTTPConfig) *HTTPTranscriber {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.Model == "" {
		config.Model = "whisper-large-v3"
	}
	return &HTTPTranscriber{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// transcriptionResponse is the OpenAI-compatible transcription response.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio file for recognition and returns the text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("building multipart request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading audio file: %w", err)
	}
	if err := mw.WriteField("model", t.config.Model); err != nil {
		return "", fmt.Errorf("building multipart request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.Endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: transcription HTTP %d", rcerrors.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, string(body))
	default:
		return "", &PermanentError{Status: resp.StatusCode, Detail: string(body)}
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing transcription response: %w", err)
	}

	return parsed.Text, nil
}
