// Package voice bridges a conversation session to optional speech capture
// and output providers. Capabilities are fixed at construction: a missing
// recognizer makes Listen fail fast with ErrCaptureUnavailable, a missing
// synthesizer makes Speak a silent no-op. Capture and playback are
// independent single-instance resources: at most one of each is ever
// active, and a new utterance replaces the previous one.
package voice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/officeflow/deskchat/internal/audio"
	"github.com/officeflow/deskchat/internal/logger"
)

// Recognizer captures one utterance per activation and returns its single
// final transcript. No interim results are surfaced.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// Synthesizer renders text to an audio stream. Voices lists the selectable
// voice names; an empty name in Synthesize means the provider default.
type Synthesizer interface {
	Voices(ctx context.Context) ([]string, error)
	Synthesize(ctx context.Context, text, voiceName string) (io.ReadCloser, error)
}

// Bridge wraps the optional speech providers behind the session-facing
// surface.
type Bridge struct {
	rec    Recognizer
	synth  Synthesizer
	player audio.Player
	prefs  []string

	mu            sync.Mutex
	capturing     bool
	captureCancel context.CancelFunc

	speakMu     sync.Mutex
	speakCancel context.CancelFunc
	speakDone   chan struct{}

	voiceOnce sync.Once
	voiceName string

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithRecognizer enables speech capture.
func WithRecognizer(r Recognizer) Option {
	return func(b *Bridge) { b.rec = r }
}

// WithSynthesizer enables speech output.
func WithSynthesizer(s Synthesizer) Option {
	return func(b *Bridge) { b.synth = s }
}

// WithPlayer sets the playback sink. Without one, synthesized audio is
// discarded.
func WithPlayer(p audio.Player) Option {
	return func(b *Bridge) { b.player = p }
}

// WithVoicePreferences sets the cosmetic voice preference list, matched
// case-insensitively against provider voice names.
func WithVoicePreferences(names []string) Option {
	return func(b *Bridge) { b.prefs = names }
}

// NewBridge builds a bridge from whatever capabilities the options carry.
func NewBridge(opts ...Option) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.player == nil {
		b.player = audio.Discard
	}
	return b
}

// CanListen reports whether a capture capability exists.
func (b *Bridge) CanListen() bool { return b.rec != nil }

// CanSpeak reports whether an output capability exists.
func (b *Bridge) CanSpeak() bool { return b.synth != nil }

// Listen runs one single-shot capture and returns the final transcript.
// Without a recognizer it fails immediately with ErrCaptureUnavailable; a
// concurrent activation is rejected with ErrCaptureBusy. Every capture
// failure comes back as a *RecognitionError and leaves the bridge idle.
func (b *Bridge) Listen(ctx context.Context) (string, error) {
	if b.rec == nil {
		return "", ErrCaptureUnavailable
	}

	b.mu.Lock()
	if b.capturing {
		b.mu.Unlock()
		return "", ErrCaptureBusy
	}
	cctx, cancel := context.WithCancel(ctx)
	b.capturing = true
	b.captureCancel = cancel
	b.mu.Unlock()

	transcript, err := b.rec.Recognize(cctx)

	b.mu.Lock()
	b.capturing = false
	b.captureCancel = nil
	b.mu.Unlock()
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Stopped via Stop or abandoned by the caller.
			return "", &RecognitionError{Reason: ReasonAborted, Err: err}
		}
		var rerr *RecognitionError
		if errors.As(err, &rerr) {
			return "", err
		}
		return "", &RecognitionError{Reason: ReasonAudioCapture, Err: err}
	}
	if strings.TrimSpace(transcript) == "" {
		return "", &RecognitionError{Reason: ReasonNoSpeech}
	}
	return transcript, nil
}

// Stop cancels an in-progress capture; safe to call when idle.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.captureCancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Speak renders text aloud, fire-and-forget. A still-playing utterance is
// cancelled first: last call wins and playback never overlaps. Without a
// synthesizer, or after Close, this is a silent no-op.
func (b *Bridge) Speak(text string) {
	if b.synth == nil || strings.TrimSpace(text) == "" {
		return
	}

	b.speakMu.Lock()
	if b.speakCancel != nil {
		b.speakCancel()
	}
	ctx, cancel := context.WithCancel(b.baseCtx)
	b.speakCancel = cancel
	prev := b.speakDone
	done := make(chan struct{})
	b.speakDone = done
	b.speakMu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(done)

		// The playback device is single-instance: wait for the superseded
		// utterance to release it before starting.
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}

		stream, err := b.synth.Synthesize(ctx, text, b.selectVoice(ctx))
		if err != nil {
			if ctx.Err() == nil {
				logger.L.Warn("speech synthesis failed", "error", err)
			}
			return
		}
		defer stream.Close()

		if err := b.player.Play(ctx, stream); err != nil && ctx.Err() == nil {
			logger.L.Warn("speech playback failed", "error", err)
		}
	}()
}

// selectVoice resolves the preferred synthesis voice once per bridge. The
// preference is cosmetic: listing failures and unmatched preferences fall
// back to the provider default, never to an error.
func (b *Bridge) selectVoice(ctx context.Context) string {
	b.voiceOnce.Do(func() {
		names, err := b.synth.Voices(ctx)
		if err != nil {
			logger.L.Debug("voice listing failed, using provider default", "error", err)
			return
		}
		for _, pref := range b.prefs {
			for _, name := range names {
				if strings.Contains(strings.ToLower(name), strings.ToLower(pref)) {
					b.voiceName = name
					return
				}
			}
		}
	})
	return b.voiceName
}

// Close stops any capture, cancels playback, and waits for the playback
// goroutine to drain.
func (b *Bridge) Close() {
	b.Stop()
	b.baseCancel()
	b.wg.Wait()
}
