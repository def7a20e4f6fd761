package workflow

import "errors"

// Error vocabulary for the encounter capture workflow. Collaborator
// packages wrap these sentinels so callers can classify failures with
// errors.Is regardless of where they originated.
var (
	// ErrPermissionDenied signals the microphone was refused or no input
	// device exists.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNotRecording signals stopRecording was called with no active
	// recording.
	ErrNotRecording = errors.New("not recording")

	// ErrUnsupportedFormat signals an uploaded file outside the audio
	// allow-list.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrAlreadyInProgress signals a second transcription or submission
	// while one is still in flight.
	ErrAlreadyInProgress = errors.New("operation already in progress")

	// ErrTranscriptionFailed signals a failed transcription attempt; the
	// wrapped message carries the collaborator's error detail.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrTranscriptMissing signals submission without a transcript.
	ErrTranscriptMissing = errors.New("transcript missing")

	// ErrSubmissionFailed signals a transport-level submission failure.
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrValidationRejected signals the backend (or client-side
	// validation) rejected the draft; not retryable as-is.
	ErrValidationRejected = errors.New("encounter rejected")

	// ErrServerError signals a 5xx from the backend; the unchanged draft
	// may be resubmitted manually.
	ErrServerError = errors.New("server error")

	// ErrInvalidTransition signals a programming-contract violation:
	// an operation invoked from a state that does not permit it. With
	// correct UI gating this is never user-reachable.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)
