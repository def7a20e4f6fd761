// Package workflow implements the encounter capture state machine:
// audio acquisition, transcription, structured-note submission, and the
// guards between them. A Session is created fresh per encounter-entry
// session; it is never persisted.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/clinicore/scribe/internal/medical"
)

// State is the client-local lifecycle of one encounter entry.
type State string

const (
	StateIdle           State = "idle"
	StateSourceSelected State = "source_selected"
	StateCaptured       State = "captured"
	StateTranscribing   State = "transcribing"
	StateTranscribed    State = "transcribed"
	StateSubmitting     State = "submitting"
	StateSaved          State = "saved"
)

// Source identifies how the session's audio was acquired.
type Source string

const (
	SourceNone   Source = ""
	SourceRecord Source = "record"
	SourceUpload Source = "upload"
)

// Details carries the encounter metadata entered alongside the audio.
type Details struct {
	PhysicianID    string
	PatientIDHash  string
	ChiefComplaint string
	EncounterType  medical.EncounterType
}

// Session owns the workflow state for one encounter entry. All transitions
// go through its methods; guards enforce the ordering contract so that
// transcription always completes before submission may begin.
//
// Transcribe and Submit block until the collaborator call resolves. Only
// one such call may be in flight at a time; a concurrent invocation fails
// with ErrAlreadyInProgress. Reset cancels the session context, which
// aborts any in-flight call, and discards its result.
type Session struct {
	device      CaptureDevice
	transcriber Transcriber
	submitter   Submitter

	sem chan struct{} // serializes state access

	state      State
	source     Source
	blob       *audio.Blob
	transcript string
	saved      *medical.Encounter

	epoch  int // bumped by Reset so stale completions are discarded
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates an idle session with the given collaborators.
func NewSession(device CaptureDevice, transcriber Transcriber, submitter Submitter) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	sem := make(chan struct{}, 1)
	sem <- struct{}{}

	return &Session{
		device:      device,
		transcriber: transcriber,
		submitter:   submitter,
		sem:         sem,
		state:       StateIdle,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Session) acquire() { <-s.sem }
func (s *Session) release() { s.sem <- struct{}{} }

// State returns the current workflow state.
func (s *Session) State() State {
	s.acquire()
	defer s.release()
	return s.state
}

// AudioSource returns how the current audio was acquired.
func (s *Session) AudioSource() Source {
	s.acquire()
	defer s.release()
	return s.source
}

// Transcript returns the transcript text, or "" before transcription.
func (s *Session) Transcript() string {
	s.acquire()
	defer s.release()
	return s.transcript
}

// Audio returns the captured blob, or nil before capture.
func (s *Session) Audio() *audio.Blob {
	s.acquire()
	defer s.release()
	return s.blob
}

// SavedEncounter returns the persisted encounter after a successful
// submission, or nil.
func (s *Session) SavedEncounter() *medical.Encounter {
	s.acquire()
	defer s.release()
	return s.saved
}

// SavedEncounterID returns the persisted encounter id, or "".
func (s *Session) SavedEncounterID() string {
	if enc := s.SavedEncounter(); enc != nil {
		return enc.ID
	}
	return ""
}

// StartRecording acquires the microphone and begins buffering audio.
// Only valid from idle: selecting a new source after capture requires an
// explicit Reset.
func (s *Session) StartRecording(ctx context.Context) error {
	s.acquire()
	defer s.release()

	if s.state != StateIdle {
		return fmt.Errorf("%w: cannot start recording from %s", ErrInvalidTransition, s.state)
	}

	if err := s.device.StartRecording(ctx); err != nil {
		return err
	}

	s.state = StateSourceSelected
	s.source = SourceRecord
	return nil
}

// StopRecording finalizes buffered audio into a single blob and releases
// the input device.
func (s *Session) StopRecording(ctx context.Context) error {
	s.acquire()
	defer s.release()

	if s.state != StateSourceSelected || s.source != SourceRecord {
		return ErrNotRecording
	}

	blob, err := s.device.StopRecording(ctx)
	if err != nil {
		return err
	}

	s.blob = blob
	s.state = StateCaptured
	return nil
}

// AcceptFile validates a user-supplied audio file and captures it as the
// session's audio source. There is no separate stop step for uploads.
func (s *Session) AcceptFile(path string) error {
	s.acquire()
	defer s.release()

	if s.state != StateIdle {
		return fmt.Errorf("%w: cannot accept a file from %s", ErrInvalidTransition, s.state)
	}

	blob, err := s.device.LoadFile(path)
	if err != nil {
		return err
	}

	s.blob = blob
	s.source = SourceUpload
	s.state = StateCaptured
	return nil
}

// Transcribe sends the captured audio for transcription and blocks until
// the call resolves. On failure the state returns to captured with the
// original audio intact, so a retry reuses identical bytes. No automatic
// retry is performed.
func (s *Session) Transcribe(ctx context.Context) error {
	s.acquire()

	if s.state == StateTranscribing {
		s.release()
		return ErrAlreadyInProgress
	}
	if s.state != StateCaptured {
		s.release()
		return fmt.Errorf("%w: cannot transcribe from %s", ErrInvalidTransition, s.state)
	}

	blob := s.blob
	epoch := s.epoch
	callCtx := s.ctx
	s.state = StateTranscribing
	s.release()

	text, err := s.transcriber.Transcribe(joinContexts(ctx, callCtx), blob)

	s.acquire()
	defer s.release()

	if s.epoch != epoch {
		// Session was reset while the call was in flight; discard.
		return context.Canceled
	}

	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty transcript returned", ErrTranscriptionFailed)
	}
	if err != nil {
		s.state = StateCaptured
		return err
	}

	s.transcript = text
	s.state = StateTranscribed
	return nil
}

// Submit validates the draft, persists the encounter with its generated
// SOAP note, and blocks until the call resolves. Client-side validation
// failures never reach the network. On failure the state returns to
// transcribed and the draft is unchanged, so a manual retry resubmits
// identical content.
func (s *Session) Submit(ctx context.Context, details Details) error {
	s.acquire()

	if s.state == StateSubmitting {
		s.release()
		return ErrAlreadyInProgress
	}
	if s.state != StateTranscribed {
		s.release()
		return fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, s.state)
	}
	if strings.TrimSpace(s.transcript) == "" {
		s.release()
		return ErrTranscriptMissing
	}
	if strings.TrimSpace(details.ChiefComplaint) == "" {
		s.release()
		return fmt.Errorf("%w: %s", ErrValidationRejected, medical.ErrChiefComplaintRequired)
	}

	draft := medical.EncounterDraft{
		PhysicianID:    details.PhysicianID,
		PatientIDHash:  details.PatientIDHash,
		ChiefComplaint: details.ChiefComplaint,
		EncounterType:  details.EncounterType,
		Transcription:  s.transcript,
		GenerateSOAP:   true,
	}
	if s.blob != nil {
		draft.AudioDurationSeconds = s.blob.DurationSeconds()
	}
	if err := draft.Validate(); err != nil {
		s.release()
		return fmt.Errorf("%w: %s", ErrValidationRejected, err)
	}

	epoch := s.epoch
	callCtx := s.ctx
	s.state = StateSubmitting
	s.release()

	saved, err := s.submitter.Submit(joinContexts(ctx, callCtx), draft)

	s.acquire()
	defer s.release()

	if s.epoch != epoch {
		return context.Canceled
	}

	if err != nil {
		s.state = StateTranscribed
		return err
	}

	s.saved = saved
	s.state = StateSaved
	return nil
}

// Reset discards captured audio, transcript, and draft metadata, aborts
// any in-flight collaborator call, and returns the session to idle. It is
// the only path back to idle other than NewEncounter from saved.
func (s *Session) Reset(ctx context.Context) {
	s.acquire()
	defer s.release()
	s.resetLocked(ctx)
}

// NewEncounter begins a fresh entry after a successful save.
func (s *Session) NewEncounter(ctx context.Context) error {
	s.acquire()
	defer s.release()

	if s.state != StateSaved {
		return fmt.Errorf("%w: new encounter requires a saved state, got %s", ErrInvalidTransition, s.state)
	}

	s.resetLocked(ctx)
	return nil
}

func (s *Session) resetLocked(ctx context.Context) {
	// Abort in-flight network calls and invalidate their completions.
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.epoch++

	// Release the microphone if a recording is still active.
	if s.state == StateSourceSelected && s.source == SourceRecord {
		_, _ = s.device.StopRecording(ctx)
	}

	s.state = StateIdle
	s.source = SourceNone
	s.blob = nil
	s.transcript = ""
	s.saved = nil
}

// joinContexts returns a context cancelled when either input is. The
// session context lets Reset abort in-flight calls regardless of the
// caller's context.
func joinContexts(caller, session context.Context) context.Context {
	if caller == nil || caller == context.Background() {
		return session
	}

	merged, cancel := context.WithCancel(caller)
	go func() {
		select {
		case <-session.Done():
			cancel()
		case <-merged.Done():
		}
	}()

	return merged
}
