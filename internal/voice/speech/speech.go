// Package speech implements voice output against an OpenAI-compatible
// text-to-speech endpoint.
package speech

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/officeflow/deskchat/internal/config"
	"github.com/officeflow/deskchat/internal/voice"
)

// speaker is the subset of openai.Client this provider uses; it is easy to
// mock in tests.
type speaker interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Synthesizer satisfies voice.Synthesizer.
type Synthesizer struct {
	client speaker
	model  openai.SpeechModel
	format openai.SpeechResponseFormat
	speed  float64
}

var _ voice.Synthesizer = (*Synthesizer)(nil)

// New creates a speech synthesizer from the output configuration.
func New(cfg config.OutputConfig) *Synthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Synthesizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SpeechModel(cfg.Model),
		format: openai.SpeechResponseFormat(cfg.Format),
		speed:  cfg.Speed,
	}
}

// Voices returns the accepted voice names. The endpoint has no listing
// call, so the published set is fixed.
func (s *Synthesizer) Voices(ctx context.Context) ([]string, error) {
	return []string{
		string(openai.VoiceAlloy),
		string(openai.VoiceEcho),
		string(openai.VoiceFable),
		string(openai.VoiceOnyx),
		string(openai.VoiceNova),
		string(openai.VoiceShimmer),
	}, nil
}

// Synthesize renders text with the given voice and streams the audio back.
// An empty voiceName falls back to alloy.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceName string) (io.ReadCloser, error) {
	v := openai.SpeechVoice(voiceName)
	if voiceName == "" {
		v = openai.VoiceAlloy
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          v,
		ResponseFormat: s.format,
		Speed:          s.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}
	return resp, nil
}
