package audio_test

import (
	"testing"
	"time"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/stretchr/testify/assert"
)

func TestBlobDurationSeconds(t *testing.T) {
	blob := &audio.Blob{Duration: 5400 * time.Millisecond}
	assert.Equal(t, 5, blob.DurationSeconds())

	assert.Zero(t, (&audio.Blob{}).DurationSeconds())
}

func TestBlobEmpty(t *testing.T) {
	var nilBlob *audio.Blob
	assert.True(t, nilBlob.Empty())
	assert.True(t, (&audio.Blob{}).Empty())
	assert.False(t, (&audio.Blob{Data: []byte("x")}).Empty())
}
