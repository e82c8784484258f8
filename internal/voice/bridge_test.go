package voice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type stubRecognizer struct {
	transcript string
	err        error
	started    chan struct{}
	release    chan struct{}
}

func (r *stubRecognizer) Recognize(ctx context.Context) (string, error) {
	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.release != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-r.release:
		}
	}
	return r.transcript, r.err
}

type stubSynth struct {
	mu        sync.Mutex
	voices    []string
	voicesErr error
	texts     []string
	voiceReqs []string
}

func (s *stubSynth) Voices(ctx context.Context) ([]string, error) {
	return s.voices, s.voicesErr
}

func (s *stubSynth) Synthesize(ctx context.Context, text, voiceName string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.voiceReqs = append(s.voiceReqs, voiceName)
	s.mu.Unlock()
	return io.NopCloser(strings.NewReader(text)), nil
}

func (s *stubSynth) requestedVoices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.voiceReqs...)
}

type stubPlayer struct {
	mu       sync.Mutex
	started  []string
	finished []string
	block    chan struct{}
}

func (p *stubPlayer) Play(ctx context.Context, r io.Reader) error {
	data, _ := io.ReadAll(r)
	p.mu.Lock()
	p.started = append(p.started, string(data))
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-block:
		}
	}

	p.mu.Lock()
	p.finished = append(p.finished, string(data))
	p.mu.Unlock()
	return nil
}

func (p *stubPlayer) snapshot() (started, finished []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.started...), append([]string(nil), p.finished...)
}

func TestListen_NoCapability(t *testing.T) {
	b := NewBridge()
	defer b.Close()

	require.False(t, b.CanListen())
	_, err := b.Listen(context.Background())
	require.ErrorIs(t, err, ErrCaptureUnavailable)
}

func TestListen_SingleShot(t *testing.T) {
	b := NewBridge(WithRecognizer(&stubRecognizer{transcript: "show me refunds"}))
	defer b.Close()

	require.True(t, b.CanListen())
	got, err := b.Listen(context.Background())
	require.NoError(t, err)
	require.Equal(t, "show me refunds", got)
}

func TestListen_SecondActivationRejected(t *testing.T) {
	rec := &stubRecognizer{
		transcript: "only once",
		started:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	b := NewBridge(WithRecognizer(rec))
	defer b.Close()

	results := make(chan string, 1)
	go func() {
		got, err := b.Listen(context.Background())
		if err == nil {
			results <- got
		} else {
			results <- "error: " + err.Error()
		}
	}()

	<-rec.started
	_, err := b.Listen(context.Background())
	require.ErrorIs(t, err, ErrCaptureBusy)

	close(rec.release)
	require.Equal(t, "only once", <-results)
}

func TestListen_StopAborts(t *testing.T) {
	rec := &stubRecognizer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	b := NewBridge(WithRecognizer(rec))
	defer b.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := b.Listen(context.Background())
		errs <- err
	}()

	<-rec.started
	b.Stop()

	err := <-errs
	require.True(t, IsAborted(err), "expected aborted capture, got %v", err)

	// Stop while idle is a no-op.
	b.Stop()
}

func TestListen_NoSpeechDetected(t *testing.T) {
	b := NewBridge(WithRecognizer(&stubRecognizer{transcript: "   "}))
	defer b.Close()

	_, err := b.Listen(context.Background())
	var rerr *RecognitionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ReasonNoSpeech, rerr.Reason)
}

func TestListen_ProviderReasonPreserved(t *testing.T) {
	provErr := &RecognitionError{Reason: ReasonNotAllowed}
	b := NewBridge(WithRecognizer(&stubRecognizer{err: provErr}))
	defer b.Close()

	_, err := b.Listen(context.Background())
	var rerr *RecognitionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ReasonNotAllowed, rerr.Reason)
}

func TestListen_GenericErrorWrapped(t *testing.T) {
	cause := errors.New("device gone")
	b := NewBridge(WithRecognizer(&stubRecognizer{err: cause}))
	defer b.Close()

	_, err := b.Listen(context.Background())
	var rerr *RecognitionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ReasonAudioCapture, rerr.Reason)
	require.ErrorIs(t, err, cause)
}

func TestSpeak_NoSynthesizerIsSilent(t *testing.T) {
	b := NewBridge()
	require.False(t, b.CanSpeak())
	b.Speak("nothing happens")
	b.Close()
}

func TestSpeak_PlaysThroughPlayer(t *testing.T) {
	synth := &stubSynth{}
	player := &stubPlayer{}
	b := NewBridge(WithSynthesizer(synth), WithPlayer(player))
	defer b.Close()

	b.Speak("your refund was processed")
	waitFor(t, func() bool {
		_, finished := player.snapshot()
		return len(finished) == 1
	})

	_, finished := player.snapshot()
	require.Equal(t, []string{"your refund was processed"}, finished)
}

func TestSpeak_LastCallWins(t *testing.T) {
	synth := &stubSynth{}
	player := &stubPlayer{block: make(chan struct{})}
	b := NewBridge(WithSynthesizer(synth), WithPlayer(player))
	defer b.Close()

	b.Speak("first utterance")
	waitFor(t, func() bool {
		started, _ := player.snapshot()
		return len(started) == 1
	})

	// Unblock future playback, then supersede the first utterance.
	player.mu.Lock()
	player.block = nil
	player.mu.Unlock()
	b.Speak("second utterance")

	waitFor(t, func() bool {
		_, finished := player.snapshot()
		return len(finished) == 1
	})

	started, finished := player.snapshot()
	require.Equal(t, []string{"first utterance", "second utterance"}, started)
	require.Equal(t, []string{"second utterance"}, finished, "superseded audio must not finish playing")
}

func TestSpeak_VoicePreferenceSelection(t *testing.T) {
	synth := &stubSynth{voices: []string{"alloy", "echo", "nova"}}
	player := &stubPlayer{}
	b := NewBridge(
		WithSynthesizer(synth),
		WithPlayer(player),
		WithVoicePreferences([]string{"Nova", "alloy"}),
	)
	defer b.Close()

	b.Speak("hello")
	waitFor(t, func() bool { return len(synth.requestedVoices()) == 1 })
	require.Equal(t, []string{"nova"}, synth.requestedVoices())
}

func TestSpeak_VoicePreferenceUnmatchedFallsBack(t *testing.T) {
	synth := &stubSynth{voices: []string{"alloy", "echo"}}
	player := &stubPlayer{}
	b := NewBridge(
		WithSynthesizer(synth),
		WithPlayer(player),
		WithVoicePreferences([]string{"samantha"}),
	)
	defer b.Close()

	b.Speak("hello")
	waitFor(t, func() bool { return len(synth.requestedVoices()) == 1 })
	require.Equal(t, []string{""}, synth.requestedVoices(), "unmatched preference must fall back to provider default")
}

func TestSpeak_VoiceListingFailureFallsBack(t *testing.T) {
	synth := &stubSynth{voicesErr: errors.New("listing down")}
	player := &stubPlayer{}
	b := NewBridge(
		WithSynthesizer(synth),
		WithPlayer(player),
		WithVoicePreferences([]string{"nova"}),
	)
	defer b.Close()

	b.Speak("hello")
	waitFor(t, func() bool { return len(synth.requestedVoices()) == 1 })
	require.Equal(t, []string{""}, synth.requestedVoices())
}

func TestClose_DrainsPlayback(t *testing.T) {
	synth := &stubSynth{}
	player := &stubPlayer{block: make(chan struct{})}
	b := NewBridge(WithSynthesizer(synth), WithPlayer(player))

	b.Speak("long utterance")
	waitFor(t, func() bool {
		started, _ := player.snapshot()
		return len(started) == 1
	})

	b.Close() // cancels playback and waits for the goroutine

	_, finished := player.snapshot()
	require.Empty(t, finished)

	// Speaking after Close stays a silent no-op.
	b.Speak("ignored")
}
