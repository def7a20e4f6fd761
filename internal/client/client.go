// Package client is the backend API client used by the capture front end:
// it uploads audio for transcription and submits encounter drafts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/workflow"
)

// DefaultBaseURL is the development backend address.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// Client talks to the scribe backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL. The http.Client carries no
// timeout here; timeout policy belongs to the caller configuring it.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// transcribeResponse covers both transcript field spellings the backend
// contract allows; the first non-empty field wins.
type transcribeResponse struct {
	Transcript    string `json:"transcript"`
	Transcription string `json:"transcription"`
}

// errorBody covers both error detail spellings the backend may return.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// errorDetail extracts a human-readable error from a response body,
// falling back to the raw body for non-JSON errors.
func errorDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.text() != "" {
		return eb.text()
	}
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = "no error detail provided"
	}
	return detail
}

// Transcribe uploads the audio blob as a single-part form and returns the
// transcript text. Failures wrap TranscriptionFailed with the backend's
// error detail; the caller keeps the blob for manual retry.
func (c *Client) Transcribe(ctx context.Context, blob *audio.Blob) (string, error) {
	if blob.Empty() {
		return "", fmt.Errorf("%w: no audio payload", workflow.ErrTranscriptionFailed)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, blob.Filename))
	header.Set("Content-Type", blob.MIME)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}
	if _, err := part.Write(blob.Data); err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", workflow.ErrTranscriptionFailed, errorDetail(body))
	}

	var tr transcribeResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: malformed response: %s", workflow.ErrTranscriptionFailed, err)
	}

	transcript := tr.Transcript
	if transcript == "" {
		transcript = tr.Transcription
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("%w: response contained no transcript", workflow.ErrTranscriptionFailed)
	}

	return transcript, nil
}

// Submit persists an encounter draft with note generation requested. The
// backend saves encounter and SOAP note atomically: either the full pair
// comes back or nothing was persisted. Status classification:
// 4xx wraps ValidationRejected (do not retry the same draft), 5xx wraps
// ServerError (the unchanged draft may be resubmitted manually), and
// transport failures wrap SubmissionFailed.
func (c *Client) Submit(ctx context.Context, draft medical.EncounterDraft) (*medical.Encounter, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/encounters", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrSubmissionFailed, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		return nil, fmt.Errorf("%w: %s", workflow.ErrValidationRejected, errorDetail(body))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", workflow.ErrServerError, errorDetail(body))
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", workflow.ErrSubmissionFailed, resp.StatusCode)
	}

	var enc medical.Encounter
	if err := json.Unmarshal(body, &enc); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", workflow.ErrSubmissionFailed, err)
	}
	if enc.ID == "" {
		return nil, fmt.Errorf("%w: response missing encounter id", workflow.ErrSubmissionFailed)
	}

	return &enc, nil
}

// ListEncounters fetches the stored encounter collection, newest first.
func (c *Client) ListEncounters(ctx context.Context) ([]*medical.Encounter, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/encounters", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch encounters: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read encounters response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch encounters: %s", errorDetail(body))
	}

	var wrapper struct {
		Encounters []*medical.Encounter `json:"encounters"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed encounters response: %w", err)
	}

	return wrapper.Encounters, nil
}

// GetEncounter fetches one encounter by id, with its nested SOAP note.
func (c *Client) GetEncounter(ctx context.Context, id string) (*medical.Encounter, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/encounters/"+id, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch encounter %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read encounter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch encounter %s: %s", id, errorDetail(body))
	}

	var enc medical.Encounter
	if err := json.Unmarshal(body, &enc); err != nil {
		return nil, fmt.Errorf("malformed encounter response: %w", err)
	}

	return &enc, nil
}
