package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinicore/scribe/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		mime string
	}{
		{"visit.mp3", "audio/mpeg"},
		{"Visit.MP3", "audio/mpeg"},
		{"exam.wav", "audio/wav"},
		{"followup.webm", "audio/webm"},
		{"consult.ogg", "audio/ogg"},
		{"telehealth.m4a", "audio/x-m4a"},
		{"/tmp/nested/dir/visit.mp3", "audio/mpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mime, err := FormatFor(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.mime, mime)
		})
	}
}

func TestFormatForRejectsUnsupported(t *testing.T) {
	for _, path := range []string{"notes.txt", "scan.pdf", "visit", "archive.mp3.gz"} {
		t.Run(path, func(t *testing.T) {
			_, err := FormatFor(path)
			assert.ErrorIs(t, err, workflow.ErrUnsupportedFormat)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visit.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3 bytes"), 0o644))

	r := NewRecorder()
	blob, err := r.LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), blob.Data)
	assert.Equal(t, "audio/mpeg", blob.MIME)
	assert.Equal(t, "visit.mp3", blob.Filename)
}

func TestLoadFileRejectsUnsupportedBeforeReading(t *testing.T) {
	r := NewRecorder()

	// The path does not exist; the format check fails first.
	_, err := r.LoadFile("/nonexistent/notes.txt")

	assert.ErrorIs(t, err, workflow.ErrUnsupportedFormat)
}

func TestLoadFileMissing(t *testing.T) {
	r := NewRecorder()

	_, err := r.LoadFile(filepath.Join(t.TempDir(), "gone.mp3"))

	assert.ErrorContains(t, err, "failed to read audio file")
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "silent.wav")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	r := NewRecorder()
	_, err := r.LoadFile(path)

	assert.ErrorContains(t, err, "is empty")
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRecorder()

	_, err := r.StopRecording(context.Background())

	assert.ErrorIs(t, err, workflow.ErrNotRecording)
	assert.False(t, r.IsRecording())
}

func TestSampleRing(t *testing.T) {
	ring := newSampleRing(4)

	// S16LE: 1, 2, 3
	ring.writePCM([]byte{1, 0, 2, 0, 3, 0})
	assert.Equal(t, []int16{1, 2, 3}, ring.snapshot())

	// Overflow keeps the newest window in order
	ring.writePCM([]byte{4, 0, 5, 0})
	assert.Equal(t, []int16{2, 3, 4, 5}, ring.snapshot())

	// Negative sample decodes as two's complement
	ring.writePCM([]byte{0xFF, 0xFF})
	assert.Equal(t, []int16{3, 4, 5, -1}, ring.snapshot())

	ring.reset()
	assert.Empty(t, ring.snapshot())
}
