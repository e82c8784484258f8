// Package deepgram implements speech recognition over Deepgram's streaming
// websocket API. Capture here is single-shot: one clip is streamed, the
// stream is closed, and the finalized transcript is returned.
package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/officeflow/deskchat/internal/audio"
	"github.com/officeflow/deskchat/internal/config"
	"github.com/officeflow/deskchat/internal/logger"
	"github.com/officeflow/deskchat/internal/voice"
)

const (
	defaultBaseURL = "wss://api.deepgram.com"
	defaultModel   = "nova-2"

	// Bytes of linear16 audio per binary frame.
	frameSize = 8192
)

// listenResults is the transcription payload of a "Results" message.
type listenResults struct {
	Type         string `json:"type"`
	IsFinal      bool   `json:"is_final"`
	SpeechFinal  bool   `json:"speech_final"`
	FromFinalize bool   `json:"from_finalize"`
	Channel      struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type closeStream struct {
	Type string `json:"type"`
}

// Recognizer satisfies voice.Recognizer.
type Recognizer struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	sampleRate int
	source     audio.Capture
	dialer     *websocket.Dialer
}

var _ voice.Recognizer = (*Recognizer)(nil)

// New creates a Deepgram recognizer reading utterance clips from source.
func New(cfg config.CaptureConfig, source audio.Capture) *Recognizer {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Recognizer{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		source:     source,
		dialer:     websocket.DefaultDialer,
	}
}

// Recognize records one clip, streams it and returns the transcript the
// server finalized for it.
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

	conn, resp, err := r.dialer.DialContext(ctx, r.listenURL(), http.Header{
		"Authorization": {"Token " + r.apiKey},
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return "", &voice.RecognitionError{Reason: voice.ReasonNotAllowed, Err: err}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &voice.RecognitionError{Reason: voice.ReasonNetwork, Err: err}
	}
	defer conn.Close()

	// The read loop blocks without a deadline; closing the connection is how
	// a cancelled context unblocks it.
	watch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watch:
		}
	}()
	defer close(watch)

	if err := r.stream(conn, pcm); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &voice.RecognitionError{Reason: voice.ReasonNetwork, Err: err}
	}

	transcript, err := r.collect(conn)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &voice.RecognitionError{Reason: voice.ReasonNetwork, Err: err}
	}
	return transcript, nil
}

func (r *Recognizer) listenURL() string {
	q := url.Values{}
	q.Set("model", r.model)
	if r.language != "" {
		q.Set("language", r.language)
	}
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("interim_results", "false")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(r.sampleRate))
	q.Set("channels", "1")
	return strings.TrimRight(r.baseURL, "/") + "/v1/listen?" + q.Encode()
}

// stream sends the clip as binary frames, then tells the server the stream
// is complete so it finalizes pending results.
func (r *Recognizer) stream(conn *websocket.Conn, pcm []byte) error {
	for off := 0; off < len(pcm); off += frameSize {
		end := off + frameSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return err
		}
	}
	msg, err := sonic.Marshal(closeStream{Type: "CloseStream"})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// collect reads result messages until the server reports the stream fully
// processed and joins the finalized segments in arrival order.
func (r *Recognizer) collect(conn *websocket.Conn) (string, error) {
	var parts []string
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return strings.Join(parts, " "), nil
			}
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var base struct {
			Type string `json:"type"`
		}
		if err := sonic.Unmarshal(message, &base); err != nil {
			logger.L.Debug("undecodable transcription message", "error", err)
			continue
		}

		switch base.Type {
		case "Results":
			var result listenResults
			if err := sonic.Unmarshal(message, &result); err != nil {
				logger.L.Debug("undecodable transcription results", "error", err)
				continue
			}
			if len(result.Channel.Alternatives) == 0 {
				continue
			}
			transcript := result.Channel.Alternatives[0].Transcript
			if transcript == "" {
				continue
			}
			if result.IsFinal || result.SpeechFinal || result.FromFinalize {
				parts = append(parts, transcript)
			}
		case "Metadata":
			// Sent once after CloseStream when everything is transcribed.
			return strings.Join(parts, " "), nil
		}
	}
}
