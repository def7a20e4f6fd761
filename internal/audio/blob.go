// Package audio provides the audio payload type shared between capture,
// transcription, and upload code, plus the streaming MP3 encoder used to
// finalize microphone recordings.
package audio

import "time"

// Blob is a finalized audio payload: one recording or one uploaded file.
type Blob struct {
	Data     []byte
	MIME     string
	Filename string
	Duration time.Duration
}

// DurationSeconds returns the blob duration rounded down to whole seconds.
func (b *Blob) DurationSeconds() int {
	return int(b.Duration.Seconds())
}

// Empty reports whether the blob carries no audio data.
func (b *Blob) Empty() bool {
	return b == nil || len(b.Data) == 0
}
