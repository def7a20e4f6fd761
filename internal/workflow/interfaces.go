package workflow

import (
	"context"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/clinicore/scribe/internal/medical"
)

// CaptureDevice acquires an exclusive audio input stream and emits a
// finalized blob, or loads a user-supplied audio file.
type CaptureDevice interface {
	// StartRecording acquires the input device and begins buffering audio.
	StartRecording(ctx context.Context) error

	// StopRecording finalizes buffered audio into a single blob and
	// releases the input device. Returns ErrNotRecording when no
	// recording is active.
	StopRecording(ctx context.Context) (*audio.Blob, error)

	// LoadFile validates and loads a user-supplied audio file. Returns
	// ErrUnsupportedFormat for files outside the allow-list.
	LoadFile(path string) (*audio.Blob, error)
}

// Transcriber sends an audio payload for transcription and returns text.
type Transcriber interface {
	Transcribe(ctx context.Context, blob *audio.Blob) (string, error)
}

// Submitter persists an encounter draft and returns the stored record
// with its generated SOAP note.
type Submitter interface {
	Submit(ctx context.Context, draft medical.EncounterDraft) (*medical.Encounter, error)
}
