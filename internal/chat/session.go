// Package chat implements the conversational session controller: an ordered
// message log plus the request lifecycle flags, guarded by a state machine so
// loading and listening stay mutually exclusive. No failure crosses the
// session boundary as a fault; every error path ends in a consistent log and
// an optional user notice.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/officeflow/deskchat/internal/logger"
	"github.com/officeflow/deskchat/internal/transport"
	"github.com/officeflow/deskchat/internal/voice"
)

// Transport is the minimal network surface a session needs. *transport.Client
// satisfies it; tests substitute mocks.
type Transport interface {
	Send(ctx context.Context, message string) (*transport.Reply, error)
	History(ctx context.Context) ([]transport.TurnRecord, error)
}

// Voice is the optional speech surface of a session. A nil Voice disables
// both capture and output.
type Voice interface {
	CanListen() bool
	CanSpeak() bool
	Listen(ctx context.Context) (string, error)
	Speak(text string)
}

var _ Voice = (*voice.Bridge)(nil)

// NoticeFunc receives user-facing notices (the toast boundary). It is called
// with display text only, never with internal error chains.
type NoticeFunc func(text string)

// Session states
type SessionState stateless.State

var (
	StateIdle          SessionState = "Idle"
	StateAwaitingReply SessionState = "AwaitingReply"
	StateListening     SessionState = "Listening"
)

// Session triggers
type SessionTrigger stateless.Trigger

var (
	TriggerSubmit        SessionTrigger = "Submit"
	TriggerReplyReceived SessionTrigger = "ReplyReceived"
	TriggerReplyFailed   SessionTrigger = "ReplyFailed"
	TriggerListenStart   SessionTrigger = "ListenStart"
	TriggerTranscript    SessionTrigger = "TranscriptReceived"
	TriggerListenFailed  SessionTrigger = "ListenFailed"
	TriggerListenStopped SessionTrigger = "ListenStopped"
)

var (
	// ErrVoiceUnavailable is returned by CaptureVoice when the session has
	// no voice bridge at all.
	ErrVoiceUnavailable = errors.New("chat: voice capture is not available")
	// ErrSessionBusy is returned by CaptureVoice while a request is in
	// flight or another capture is active.
	ErrSessionBusy = errors.New("chat: session is busy")
)

// Session is the single source of truth a chat view renders from.
type Session struct {
	id        string
	transport Transport
	voice     Voice
	notify    NoticeFunc

	mu           sync.Mutex
	fsm          *stateless.StateMachine
	messages     []Message
	hydrated     bool
	voiceEnabled bool
}

// Option configures a Session.
type Option func(*Session)

// WithVoice attaches a voice bridge. Voice output starts enabled when the
// bridge can speak.
func WithVoice(v Voice) Option {
	return func(s *Session) { s.voice = v }
}

// WithNotifier attaches the user-notice hook.
func WithNotifier(fn NoticeFunc) Option {
	return func(s *Session) { s.notify = fn }
}

// New creates an idle, unhydrated session.
func New(t Transport, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		transport: t,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.voiceEnabled = s.voice != nil && s.voice.CanSpeak()
	s.fsm = newSessionFSM(s.id)
	return s
}

// State machine: Idle -> AwaitingReply -> Idle per submission,
// Idle -> Listening -> Idle per capture. Submissions and captures are
// rejected before any trigger fires when the session is not idle, so the
// machine only ever sees legal transitions.
func newSessionFSM(id string) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerSubmit, StateAwaitingReply).
		Permit(TriggerListenStart, StateListening)

	fsm.Configure(StateAwaitingReply).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("session awaiting reply", "session_id", id)
			return nil
		}).
		Permit(TriggerReplyReceived, StateIdle).
		Permit(TriggerReplyFailed, StateIdle)

	fsm.Configure(StateListening).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("session listening", "session_id", id)
			return nil
		}).
		Permit(TriggerTranscript, StateIdle).
		Permit(TriggerListenFailed, StateIdle).
		Permit(TriggerListenStopped, StateIdle)

	return fsm
}

func (s *Session) fire(trigger SessionTrigger) {
	if err := s.fsm.Fire(trigger); err != nil {
		logger.L.Warn("session FSM fire error", "session_id", s.id, "trigger", trigger, "error", err)
	}
}

func (s *Session) sendNotice(text string) {
	if s.notify != nil {
		s.notify(text)
	}
}

// ID returns the session identifier used for log correlation.
func (s *Session) ID() string { return s.id }

// Loading reports whether a submitted turn is awaiting its reply.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.MustState() == StateAwaitingReply
}

// Listening reports whether a voice capture is active.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.MustState() == StateListening
}

// CanListen reports whether the session has a usable capture capability.
func (s *Session) CanListen() bool {
	return s.voice != nil && s.voice.CanListen()
}

// VoiceOutputEnabled reports whether replies are spoken aloud.
func (s *Session) VoiceOutputEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

// SetVoiceOutput toggles spoken replies. Enabling without an output
// capability is silently clamped off: output is best-effort, never an error.
func (s *Session) SetVoiceOutput(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = on && s.voice != nil && s.voice.CanSpeak()
}

// Messages returns a copy of the log; callers may range freely while the
// session keeps mutating.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Hydrate loads prior turns through the transport and seeds the log,
// oldest-first. The first successful call latches: repeats are no-ops. A
// fetch failure is returned for user notification and does not latch, so the
// caller may retry.
func (s *Session) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		logger.L.Debug("session already hydrated", "session_id", s.id)
		return nil
	}
	s.mu.Unlock()

	records, err := s.transport.History(ctx)
	if err != nil {
		logger.L.Warn("history fetch failed", "session_id", s.id, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	s.messages = append(expandHistory(records), s.messages...)
	s.hydrated = true
	logger.L.Debug("session hydrated", "session_id", s.id, "turns", len(records))
	return nil
}

// Submit runs one conversation turn. It returns (zero, false) without side
// effects when text is blank or the session is loading or listening;
// rejected input is ignored, never queued. The user message is appended
// before the network call; on transport failure the turn still completes
// locally with the fixed fallback reply, so the log always grows by a full
// (user, assistant) pair and no error escapes the session boundary.
func (s *Session) Submit(ctx context.Context, text string) (Message, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Message{}, false
	}

	s.mu.Lock()
	if s.fsm.MustState() != StateIdle {
		logger.L.Debug("submit rejected", "session_id", s.id, "state", s.fsm.MustState())
		s.mu.Unlock()
		return Message{}, false
	}
	turnID := uuid.New().String()
	s.fire(TriggerSubmit)
	s.messages = append(s.messages, Message{Role: RoleUser, Content: trimmed})
	s.mu.Unlock()

	reply, err := s.transport.Send(ctx, trimmed)

	s.mu.Lock()
	if err != nil {
		logger.L.Warn("turn failed", "session_id", s.id, "turn_id", turnID, "error", err)
		s.fire(TriggerReplyFailed)
		msg := fallbackMessage()
		s.messages = append(s.messages, msg)
		s.mu.Unlock()
		s.sendNotice("Failed to get a response from the assistant.")
		return msg, true
	}

	s.fire(TriggerReplyReceived)
	msg := Message{
		Role:    RoleAssistant,
		Content: reply.Response,
		Meta:    newMetadata(reply.Score, reply.Model, reply.Confidence, reply.ProcessingTime),
	}
	s.messages = append(s.messages, msg)
	speak := s.voiceEnabled
	s.mu.Unlock()

	logger.L.Debug("turn complete", "session_id", s.id, "turn_id", turnID, "model", reply.Model)
	if speak {
		s.voice.Speak(msg.Content)
	}
	return msg, true
}

// CaptureVoice runs one single-shot speech capture and returns the
// transcript for the caller to place in its input buffer. Capture is
// rejected while a request is in flight and submissions are rejected while
// listening, keeping the two flags mutually exclusive. Capture errors are
// recoverable: the session returns to idle and stays usable.
func (s *Session) CaptureVoice(ctx context.Context) (string, error) {
	if s.voice == nil || !s.voice.CanListen() {
		return "", ErrVoiceUnavailable
	}

	s.mu.Lock()
	if s.fsm.MustState() != StateIdle {
		logger.L.Debug("capture rejected", "session_id", s.id, "state", s.fsm.MustState())
		s.mu.Unlock()
		return "", ErrSessionBusy
	}
	s.fire(TriggerListenStart)
	s.mu.Unlock()

	transcript, err := s.voice.Listen(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if voice.IsAborted(err) {
			s.fire(TriggerListenStopped)
		} else {
			logger.L.Warn("capture failed", "session_id", s.id, "error", err)
			s.fire(TriggerListenFailed)
		}
		return "", err
	}
	s.fire(TriggerTranscript)
	return transcript, nil
}
