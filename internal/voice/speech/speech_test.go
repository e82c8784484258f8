package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type mockSpeaker struct {
	gotReq openai.CreateSpeechRequest
	err    error
}

func (m *mockSpeaker) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	m.gotReq = req
	if m.err != nil {
		return openai.RawResponse{}, m.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader("AUDIO"))}, nil
}

func newTestSynthesizer(client speaker) *Synthesizer {
	return &Synthesizer{client: client, model: openai.TTSModel1, format: openai.SpeechResponseFormatWav, speed: 0.95}
}

func TestSynthesize_BuildsRequest(t *testing.T) {
	ms := &mockSpeaker{}
	s := newTestSynthesizer(ms)

	stream, err := s.Synthesize(context.Background(), "your sale was recorded", "nova")
	require.NoError(t, err)
	defer stream.Close()

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "AUDIO", string(body))

	require.Equal(t, openai.TTSModel1, ms.gotReq.Model)
	require.Equal(t, "your sale was recorded", ms.gotReq.Input)
	require.Equal(t, openai.VoiceNova, ms.gotReq.Voice)
	require.Equal(t, openai.SpeechResponseFormatWav, ms.gotReq.ResponseFormat)
	require.Equal(t, 0.95, ms.gotReq.Speed)
}

func TestSynthesize_EmptyVoiceFallsBack(t *testing.T) {
	ms := &mockSpeaker{}
	s := newTestSynthesizer(ms)

	stream, err := s.Synthesize(context.Background(), "hello", "")
	require.NoError(t, err)
	stream.Close()
	require.Equal(t, openai.VoiceAlloy, ms.gotReq.Voice)
}

func TestSynthesize_Error(t *testing.T) {
	cause := errors.New("service down")
	s := newTestSynthesizer(&mockSpeaker{err: cause})

	_, err := s.Synthesize(context.Background(), "hello", "nova")
	require.ErrorIs(t, err, cause)
}

func TestVoices_PublishedSet(t *testing.T) {
	s := newTestSynthesizer(&mockSpeaker{})

	names, err := s.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, names, 6)
	require.Contains(t, names, "nova")
	require.Contains(t, names, "alloy")
}
