// Package capture implements the encounter audio capture device: exclusive
// microphone acquisition finalized into an MP3 blob, or validation and
// loading of a user-supplied audio file.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicore/scribe/internal/audio"
	"github.com/clinicore/scribe/internal/workflow"
	"github.com/clinicore/scribe/pkg/channels"
	"github.com/gen2brain/malgo"
)

const (
	sampleRate     = 16_000 // Whisper native sample rate
	channelCount   = 1      // mono
	bytesPerSecond = sampleRate * 2 // S16LE mono

	// encoderSendTimeout bounds the wait for a wedged encoder; the
	// encoder must see every packet, so its subscription blocks up to
	// this long instead of dropping.
	encoderSendTimeout = time.Second

	// levelWindow is how many recent samples the level meter keeps,
	// about a quarter second at 16kHz.
	levelWindow = 4096
)

// allowedFormats maps accepted file extensions to their media types.
var allowedFormats = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".m4a":  "audio/x-m4a",
}

// Recorder is the audio capture device for one encounter-entry session.
// It holds the microphone exclusively between StartRecording and
// StopRecording and releases it on every exit path.
//
// Captured packets fan out through a broadcaster to two consumers: the
// MP3 encoder, which must see every packet, and the level meter, which
// may drop under pressure.
type Recorder struct {
	mu sync.Mutex

	dev       audio.Device
	dataC     chan audio.DataPacket
	encoderIn chan []byte
	encoder   *audio.StreamingEncoder
	out       *bytes.Buffer
	pumpDone  chan struct{}

	bcast      *channels.Broadcaster[[]byte]
	bcastStop  context.CancelFunc
	levelsC    chan []byte
	levelsDone chan struct{}

	ring      *sampleRing
	pcmBytes  atomic.Int64
	recording bool
}

// NewRecorder creates an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		ring: newSampleRing(levelWindow),
	}
}

// StartRecording acquires the default capture device and begins streaming
// PCM into the MP3 encoder. Device initialization failures surface as
// PermissionDenied: the microphone was refused or no input device exists.
func (r *Recorder) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w: recording already active", workflow.ErrAlreadyInProgress)
	}

	dev := audio.NewDevice(&audio.DeviceConfig{
		Format:          malgo.FormatS16,
		SampleRate:      sampleRate,
		CaptureChannels: channelCount,
	})

	dataC := make(chan audio.DataPacket, 64)
	if err := dev.CaptureInto(ctx, dataC); err != nil {
		return fmt.Errorf("%w: %s", workflow.ErrPermissionDenied, err)
	}

	out := &bytes.Buffer{}
	encoderIn := make(chan []byte, 64)

	encoderConfig := audio.EncoderConfig{
		SampleRate:      sampleRate,
		Channels:        channelCount,
		BufferThreshold: 4096,
	}.WithDefaults()

	encoder, err := audio.NewStreamingEncoder(encoderConfig, encoderIn, out)
	if err != nil {
		dev.Dealloc(ctx)
		return fmt.Errorf("failed to create MP3 encoder: %w", err)
	}

	if err := encoder.Start(context.WithoutCancel(ctx)); err != nil {
		dev.Dealloc(ctx)
		return fmt.Errorf("failed to start MP3 encoder: %w", err)
	}

	// Fan captured packets out to the encoder and the level meter. The
	// broadcaster lives past the caller's context; stop order matters
	// and is handled in StopRecording.
	bcast := channels.NewBroadcaster[[]byte]()
	levelsC := make(chan []byte, 64)
	bcast.SubscribeWithTimeout(encoderIn, encoderSendTimeout)
	bcast.Subscribe(levelsC)

	bcastCtx, bcastStop := context.WithCancel(context.Background())
	bcastIn, err := bcast.Run(bcastCtx)
	if err != nil {
		bcastStop()
		dev.Dealloc(ctx)
		close(encoderIn)
		return fmt.Errorf("failed to start capture fan-out: %w", err)
	}

	if err := dev.Start(ctx); err != nil {
		bcastStop()
		dev.Dealloc(ctx)
		close(encoderIn)
		return fmt.Errorf("%w: %s", workflow.ErrPermissionDenied, err)
	}

	// Pump packets from the device into the fan-out, counting raw PCM
	// bytes so the blob duration is exact.
	pumpDone := make(chan struct{})
	r.pcmBytes.Store(0)
	r.ring.reset()
	go func() {
		defer close(pumpDone)
		for packet := range dataC {
			r.pcmBytes.Add(int64(len(packet)))
			bcastIn <- packet
		}
	}()

	// Level meter consumer: decode S16LE samples into the ring.
	levelsDone := make(chan struct{})
	go func() {
		defer close(levelsDone)
		for data := range levelsC {
			r.ring.writePCM(data)
		}
	}()

	r.dev = dev
	r.dataC = dataC
	r.encoderIn = encoderIn
	r.encoder = encoder
	r.out = out
	r.pumpDone = pumpDone
	r.bcast = bcast
	r.bcastStop = bcastStop
	r.levelsC = levelsC
	r.levelsDone = levelsDone
	r.recording = true

	return nil
}

// StopRecording stops the device, flushes the encoder, and returns the
// finalized MP3 blob. The input device is released even when finalizing
// fails.
func (r *Recorder) StopRecording(ctx context.Context) (*audio.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, workflow.ErrNotRecording
	}
	r.recording = false

	// Stop delivery first, then drain in dependency order: device, pump,
	// fan-out, consumers, encoder.
	stopErr := r.dev.Stop(ctx)
	r.dev.Dealloc(ctx)
	close(r.dataC)
	<-r.pumpDone

	r.bcastStop()
	r.bcast.Wait()
	close(r.encoderIn)
	close(r.levelsC)
	<-r.levelsDone

	encodeErr := r.encoder.Wait()

	r.dev = nil
	r.dataC = nil
	r.encoderIn = nil
	r.encoder = nil
	r.bcast = nil
	r.bcastStop = nil
	r.levelsC = nil

	if stopErr != nil {
		return nil, fmt.Errorf("failed to stop capture device: %w", stopErr)
	}
	if encodeErr != nil {
		return nil, fmt.Errorf("failed to finalize recording: %w", encodeErr)
	}

	duration := time.Duration(r.pcmBytes.Load()) * time.Second / bytesPerSecond

	blob := &audio.Blob{
		Data:     r.out.Bytes(),
		MIME:     "audio/mpeg",
		Filename: "recording.mp3",
		Duration: duration,
	}
	r.out = nil

	if blob.Empty() {
		return nil, fmt.Errorf("recording produced no audio data")
	}

	return blob, nil
}

// IsRecording reports whether the microphone is currently held.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// PCMBytesCaptured returns the raw PCM byte count captured so far.
func (r *Recorder) PCMBytesCaptured() int64 {
	return r.pcmBytes.Load()
}

// Elapsed returns the recorded duration so far, derived from captured
// sample count rather than wall time.
func (r *Recorder) Elapsed() time.Duration {
	return time.Duration(r.pcmBytes.Load()) * time.Second / bytesPerSecond
}

// RecentSamples returns the most recent capture window, oldest first,
// for amplitude display.
func (r *Recorder) RecentSamples() []int16 {
	return r.ring.snapshot()
}

// LoadFile validates a user-supplied audio file against the accepted
// format allow-list and loads it as a blob.
func (r *Recorder) LoadFile(path string) (*audio.Blob, error) {
	mime, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio file %s is empty", filepath.Base(path))
	}

	return &audio.Blob{
		Data:     data,
		MIME:     mime,
		Filename: filepath.Base(path),
	}, nil
}

// FormatFor returns the media type for an accepted audio filename, or
// UnsupportedFormat.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := allowedFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (accepted: mp3, wav, webm, ogg, m4a)", workflow.ErrUnsupportedFormat, ext)
	}
	return mime, nil
}

// EnumerateDevices lists available capture devices.
func EnumerateDevices(ctx context.Context) ([]audio.Info, error) {
	dev := audio.NewDevice(&audio.DeviceConfig{
		Format:          malgo.FormatS16,
		SampleRate:      sampleRate,
		CaptureChannels: channelCount,
	})
	return dev.EnumerateDevices(ctx)
}
