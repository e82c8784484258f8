package voice

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureUnavailable reports the absent speech-capture capability.
	// Returned immediately, never after a hang.
	ErrCaptureUnavailable = errors.New("voice: speech capture is not available")
	// ErrCaptureBusy rejects a second activation while a capture is live;
	// a transcript is never produced twice for one utterance.
	ErrCaptureBusy = errors.New("voice: a capture is already in progress")
)

// Reason classifies a failed capture attempt, mirroring the error codes of
// the speech engines this bridge fronts.
type Reason string

const (
	ReasonNoSpeech     Reason = "no-speech"
	ReasonAborted      Reason = "aborted"
	ReasonAudioCapture Reason = "audio-capture"
	ReasonNetwork      Reason = "network"
	ReasonNotAllowed   Reason = "not-allowed"
)

// RecognitionError reports a failed capture attempt. It is always
// recoverable: the bridge is back to idle by the time the caller sees one.
type RecognitionError struct {
	Reason Reason
	Err    error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("voice: recognition failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("voice: recognition failed (%s)", e.Reason)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// IsAborted reports whether err is a capture cancelled by Stop rather than a
// genuine failure.
func IsAborted(err error) bool {
	var rerr *RecognitionError
	return errors.As(err, &rerr) && rerr.Reason == ReasonAborted
}
