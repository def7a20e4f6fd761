package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/clinicore/scribe/internal/medical"
)

// mockDevice implements CaptureDevice for testing.
type mockDevice struct {
	startErr error
	stopErr  error
	loadErr  error
	blob     *audio.Blob

	recording  bool
	startCalls int
	stopCalls  int
	loadCalls  int
}

func (m *mockDevice) StartRecording(_ context.Context) error {
	m.startCalls++
	if m.startErr != nil {
		return m.startErr
	}
	m.recording = true
	return nil
}

func (m *mockDevice) StopRecording(_ context.Context) (*audio.Blob, error) {
	m.stopCalls++
	if !m.recording {
		return nil, ErrNotRecording
	}
	m.recording = false
	if m.stopErr != nil {
		return nil, m.stopErr
	}
	return m.blob, nil
}

func (m *mockDevice) LoadFile(path string) (*audio.Blob, error) {
	m.loadCalls++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.blob != nil {
		return m.blob, nil
	}
	return &audio.Blob{Data: []byte("file audio"), MIME: "audio/wav", Filename: path}, nil
}

// mockTranscriber implements Transcriber for testing.
type mockTranscriber struct {
	result string
	err    error
	calls  atomic.Int64

	// lastBlob records the blob of the most recent call so tests can
	// assert retries reuse identical bytes.
	lastBlob *audio.Blob

	// block, when non-nil, is closed by the test to release an in-flight
	// call.
	block chan struct{}
}

func (m *mockTranscriber) Transcribe(ctx context.Context, blob *audio.Blob) (string, error) {
	m.calls.Add(1)
	m.lastBlob = blob
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.result, m.err
}

// mockSubmitter implements Submitter for testing.
type mockSubmitter struct {
	result *medical.Encounter
	err    error
	calls  atomic.Int64

	lastDraft medical.EncounterDraft
}

func (m *mockSubmitter) Submit(_ context.Context, draft medical.EncounterDraft) (*medical.Encounter, error) {
	m.calls.Add(1)
	m.lastDraft = draft
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &medical.Encounter{ID: "enc_123"}, nil
}

func testBlob() *audio.Blob {
	return &audio.Blob{
		Data:     []byte("recorded audio bytes"),
		MIME:     "audio/mpeg",
		Filename: "recording.mp3",
		Duration: 5 * time.Second,
	}
}

// newCapturedSession returns a session advanced to captured via upload.
func newCapturedSession(transcriber Transcriber, submitter Submitter) (*Session, *mockDevice) {
	dev := &mockDevice{blob: testBlob()}
	s := NewSession(dev, transcriber, submitter)
	if err := s.AcceptFile("visit.mp3"); err != nil {
		panic(fmt.Sprintf("setup: %v", err))
	}
	return s, dev
}

// newTranscribedSession returns a session advanced to transcribed.
func newTranscribedSession(transcript string, submitter Submitter) *Session {
	s, _ := newCapturedSession(&mockTranscriber{result: transcript}, submitter)
	if err := s.Transcribe(context.Background()); err != nil {
		panic(fmt.Sprintf("setup: %v", err))
	}
	return s
}

var errBoom = errors.New("boom")
