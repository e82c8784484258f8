// Package whisper implements single-shot speech recognition against an
// OpenAI-compatible transcription endpoint. One clip is recorded, wrapped as
// WAV and transcribed in a single request.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/officeflow/deskchat/internal/audio"
	"github.com/officeflow/deskchat/internal/config"
	"github.com/officeflow/deskchat/internal/voice"
)

// transcriber is the subset of openai.Client this recognizer uses; it is easy
// to mock in tests.
type transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Recognizer satisfies voice.Recognizer.
type Recognizer struct {
	client     transcriber
	source     audio.Capture
	model      string
	language   string
	sampleRate int
}

var _ voice.Recognizer = (*Recognizer)(nil)

// New creates a Whisper recognizer reading utterance clips from source.
func New(cfg config.CaptureConfig, source audio.Capture) *Recognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Recognizer{
		client:     openai.NewClientWithConfig(clientCfg),
		source:     source,
		model:      model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
	}
}

// Recognize records one clip and returns its transcript.
func (r *Recognizer) Recognize(ctx context.Context) (string, error) {
	clip, err := r.source.Record(ctx)
	if err != nil {
		return "", &voice.RecognitionError{Reason: voice.ReasonAudioCapture, Err: err}
	}
	defer clip.Close()

	pcm, err := io.ReadAll(clip)
	if err != nil {
		return "", &voice.RecognitionError{Reason: voice.ReasonAudioCapture, Err: err}
	}
	if len(pcm) == 0 {
		return "", &voice.RecognitionError{Reason: voice.ReasonNoSpeech}
	}

	wav, err := audio.WrapWAV(pcm, r.sampleRate)
	if err != nil {
		return "", &voice.RecognitionError{Reason: voice.ReasonAudioCapture, Err: err}
	}

	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		Reader:   bytes.NewReader(wav),
		FilePath: "capture.wav",
		Language: r.language,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Text, nil
}

// classify maps request failures onto recognition reasons. Cancellation
// passes through bare so callers can tell an abort from a fault.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &voice.RecognitionError{Reason: voice.ReasonNotAllowed, Err: err}
		}
	}
	return &voice.RecognitionError{Reason: voice.ReasonNetwork, Err: err}
}
