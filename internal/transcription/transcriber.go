// Package transcription wraps the Whisper API for encounter audio.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey string
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(apiKey string) *Transcriber {
	return &Transcriber{
		apiKey: apiKey,
	}
}

// TranscribeFile transcribes an audio stream using the Whisper API.
func (t *Transcriber) TranscribeFile(ctx context.Context, audioFile io.Reader) (string, error) {
	// Validate API key
	if t.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY")
	}

	client := openai.NewClient(option.WithAPIKey(t.apiKey))

	params := openai.AudioTranscriptionNewParams{
		File:  audioFile,
		Model: openai.AudioModelWhisper1,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}
