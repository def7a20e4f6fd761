package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicore/scribe/internal/medical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() Details {
	return Details{
		PhysicianID:    "dr-7",
		PatientIDHash:  "ab12cd34",
		ChiefComplaint: "persistent cough",
		EncounterType:  medical.OfficeVisit,
	}
}

func TestSessionStartsIdle(t *testing.T) {
	s := NewSession(&mockDevice{}, &mockTranscriber{}, &mockSubmitter{})

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, SourceNone, s.AudioSource())
	assert.Nil(t, s.Audio())
	assert.Empty(t, s.Transcript())
	assert.Empty(t, s.SavedEncounterID())
}

func TestRecordTranscribeSubmitHappyPath(t *testing.T) {
	ctx := context.Background()
	dev := &mockDevice{blob: testBlob()}
	transcriber := &mockTranscriber{result: "Patient reports three days of cough."}
	submitter := &mockSubmitter{result: &medical.Encounter{ID: "enc_9f8e7d6c5b4a"}}
	s := NewSession(dev, transcriber, submitter)

	require.NoError(t, s.StartRecording(ctx))
	assert.Equal(t, StateSourceSelected, s.State())
	assert.Equal(t, SourceRecord, s.AudioSource())

	require.NoError(t, s.StopRecording(ctx))
	assert.Equal(t, StateCaptured, s.State())
	require.NotNil(t, s.Audio())

	require.NoError(t, s.Transcribe(ctx))
	assert.Equal(t, StateTranscribed, s.State())
	assert.Equal(t, "Patient reports three days of cough.", s.Transcript())

	require.NoError(t, s.Submit(ctx, validDetails()))
	assert.Equal(t, StateSaved, s.State())
	assert.Equal(t, "enc_9f8e7d6c5b4a", s.SavedEncounterID())

	// The submitted draft carries the transcript and audio duration and
	// requests note generation.
	assert.Equal(t, "Patient reports three days of cough.", submitter.lastDraft.Transcription)
	assert.Equal(t, 5, submitter.lastDraft.AudioDurationSeconds)
	assert.True(t, submitter.lastDraft.GenerateSOAP)
}

func TestUploadPathSkipsRecording(t *testing.T) {
	ctx := context.Background()
	s, dev := newCapturedSession(&mockTranscriber{result: "transcript"}, &mockSubmitter{})

	assert.Equal(t, StateCaptured, s.State())
	assert.Equal(t, SourceUpload, s.AudioSource())
	assert.Equal(t, 1, dev.loadCalls)
	assert.Zero(t, dev.startCalls)

	require.NoError(t, s.Transcribe(ctx))
	assert.Equal(t, StateTranscribed, s.State())
}

func TestRejectedUploadStaysIdle(t *testing.T) {
	dev := &mockDevice{loadErr: ErrUnsupportedFormat}
	s := NewSession(dev, &mockTranscriber{}, &mockSubmitter{})

	err := s.AcceptFile("notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Audio())
}

func TestGuardsRejectOutOfOrderOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("transcribe before capture", func(t *testing.T) {
		s := NewSession(&mockDevice{}, &mockTranscriber{}, &mockSubmitter{})
		assert.ErrorIs(t, s.Transcribe(ctx), ErrInvalidTransition)
	})

	t.Run("submit before transcription", func(t *testing.T) {
		s, _ := newCapturedSession(&mockTranscriber{}, &mockSubmitter{})
		assert.ErrorIs(t, s.Submit(ctx, validDetails()), ErrInvalidTransition)
	})

	t.Run("stop without start", func(t *testing.T) {
		s := NewSession(&mockDevice{}, &mockTranscriber{}, &mockSubmitter{})
		assert.ErrorIs(t, s.StopRecording(ctx), ErrNotRecording)
	})

	t.Run("second source after capture", func(t *testing.T) {
		s, _ := newCapturedSession(&mockTranscriber{}, &mockSubmitter{})
		assert.ErrorIs(t, s.StartRecording(ctx), ErrInvalidTransition)
		assert.ErrorIs(t, s.AcceptFile("other.mp3"), ErrInvalidTransition)
	})

	t.Run("new encounter before save", func(t *testing.T) {
		s, _ := newCapturedSession(&mockTranscriber{}, &mockSubmitter{})
		assert.ErrorIs(t, s.NewEncounter(ctx), ErrInvalidTransition)
	})
}

func TestTranscribeFailureRevertsToCapturedWithSameAudio(t *testing.T) {
	ctx := context.Background()
	transcriber := &mockTranscriber{err: errBoom}
	s, _ := newCapturedSession(transcriber, &mockSubmitter{})
	original := s.Audio()

	require.Error(t, s.Transcribe(ctx))
	assert.Equal(t, StateCaptured, s.State())
	assert.Empty(t, s.Transcript())

	// Retry sends the identical blob.
	transcriber.err = nil
	transcriber.result = "second attempt"
	require.NoError(t, s.Transcribe(ctx))
	assert.Same(t, original, transcriber.lastBlob)
	assert.Equal(t, "second attempt", s.Transcript())
	assert.Equal(t, int64(2), transcriber.calls.Load())
}

func TestEmptyTranscriptIsAFailure(t *testing.T) {
	s, _ := newCapturedSession(&mockTranscriber{result: "   \n"}, &mockSubmitter{})

	err := s.Transcribe(context.Background())
	require.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Equal(t, StateCaptured, s.State())
}

func TestConcurrentTranscribeReturnsAlreadyInProgress(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	transcriber := &mockTranscriber{result: "done", block: block}
	s, _ := newCapturedSession(transcriber, &mockSubmitter{})

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.Transcribe(ctx) }()

	require.Eventually(t, func() bool {
		return s.State() == StateTranscribing
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Transcribe(ctx), ErrAlreadyInProgress)

	close(block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateTranscribed, s.State())
	assert.Equal(t, int64(1), transcriber.calls.Load())
}

func TestSubmitValidationFailuresNeverReachNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("missing chief complaint", func(t *testing.T) {
		submitter := &mockSubmitter{}
		s := newTranscribedSession("transcript", submitter)

		details := validDetails()
		details.ChiefComplaint = "   "
		err := s.Submit(ctx, details)

		require.ErrorIs(t, err, ErrValidationRejected)
		assert.Zero(t, submitter.calls.Load())
		assert.Equal(t, StateTranscribed, s.State())
	})

	t.Run("missing transcript", func(t *testing.T) {
		// Force a transcribed state with a blank transcript by reverting
		// through a failure, then checking the guard directly from
		// transcribed is impossible; instead exercise the guard on a
		// session whose transcript was never set.
		submitter := &mockSubmitter{}
		s, _ := newCapturedSession(&mockTranscriber{}, submitter)
		err := s.Submit(ctx, validDetails())

		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Zero(t, submitter.calls.Load())
	})
}

func TestSubmitServerErrorRevertsAndRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	submitter := &mockSubmitter{err: ErrServerError}
	s := newTranscribedSession("transcript text", submitter)

	require.ErrorIs(t, s.Submit(ctx, validDetails()), ErrServerError)
	assert.Equal(t, StateTranscribed, s.State())
	assert.Equal(t, "transcript text", s.Transcript())

	firstDraft := submitter.lastDraft

	submitter.err = nil
	submitter.result = &medical.Encounter{ID: "enc_retry"}
	require.NoError(t, s.Submit(ctx, validDetails()))

	assert.Equal(t, StateSaved, s.State())
	assert.Equal(t, "enc_retry", s.SavedEncounterID())
	assert.Equal(t, firstDraft, submitter.lastDraft)
	assert.Equal(t, int64(2), submitter.calls.Load())
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := newTranscribedSession("transcript", &mockSubmitter{})

	s.Reset(ctx)

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, SourceNone, s.AudioSource())
	assert.Nil(t, s.Audio())
	assert.Empty(t, s.Transcript())
	assert.Nil(t, s.SavedEncounter())
}

func TestResetWhileRecordingReleasesDevice(t *testing.T) {
	ctx := context.Background()
	dev := &mockDevice{blob: testBlob()}
	s := NewSession(dev, &mockTranscriber{}, &mockSubmitter{})

	require.NoError(t, s.StartRecording(ctx))
	s.Reset(ctx)

	assert.False(t, dev.recording)
	assert.Equal(t, StateIdle, s.State())
}

func TestResetDiscardsInFlightTranscription(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	transcriber := &mockTranscriber{result: "late result", block: block}
	s, _ := newCapturedSession(transcriber, &mockSubmitter{})

	done := make(chan error, 1)
	go func() { done <- s.Transcribe(ctx) }()

	require.Eventually(t, func() bool {
		return s.State() == StateTranscribing
	}, time.Second, time.Millisecond)

	s.Reset(ctx)

	// The in-flight call either observes the cancelled session context or
	// its late completion is discarded; either way the session stays idle
	// and keeps no transcript.
	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Transcript())
}

func TestNewEncounterAfterSave(t *testing.T) {
	ctx := context.Background()
	s := newTranscribedSession("transcript", &mockSubmitter{})
	require.NoError(t, s.Submit(ctx, validDetails()))
	require.Equal(t, StateSaved, s.State())

	require.NoError(t, s.NewEncounter(ctx))

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.SavedEncounter())
	assert.Empty(t, s.Transcript())
}
