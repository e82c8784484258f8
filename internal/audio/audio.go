// Package audio holds the plumbing between capture devices, speech
// providers, and playback sinks: single-utterance clip sources, µ-law
// conversions for telephony captures, and RIFF/WAVE wrapping for raw PCM.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/zaf/g711"
)

// Capture yields one utterance clip per activation. Recognizers drain the
// reader and close it; cancelling ctx abandons the recording.
type Capture interface {
	Record(ctx context.Context) (io.ReadCloser, error)
}

// FileCapture replays a clip from disk on every activation. The terminal
// client uses it to feed pre-recorded or fifo-piped microphone audio in.
type FileCapture struct {
	Path string
}

func (f FileCapture) Record(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.Path)
}

// ReaderCapture hands out a fixed reader exactly once.
type ReaderCapture struct {
	mu   sync.Mutex
	r    io.Reader
	used bool
}

func NewReaderCapture(r io.Reader) *ReaderCapture {
	return &ReaderCapture{r: r}
}

func (c *ReaderCapture) Record(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		return nil, errors.New("audio: capture source exhausted")
	}
	c.used = true
	return io.NopCloser(c.r), nil
}

// ULawCapture decodes a µ-law clip source (telephony captures) into 16-bit
// linear PCM so recognizers always see LPCM.
type ULawCapture struct {
	Source Capture
}

func (c ULawCapture) Record(ctx context.Context) (io.ReadCloser, error) {
	rc, err := c.Source.Record(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(DecodeULaw(raw))), nil
}

// PCMToULaw converts one 16-bit PCM sample to 8-bit µ-law per ITU-T G.711.
func PCMToULaw(sample int16) byte {
	return g711.EncodeUlawFrame(sample)
}

// ULawToPCM converts one 8-bit µ-law byte to a 16-bit PCM sample.
func ULawToPCM(u byte) int16 {
	return g711.DecodeUlawFrame(u)
}

// EncodeULaw converts 16-bit little-endian PCM bytes to µ-law bytes.
func EncodeULaw(pcm []byte) []byte {
	return g711.EncodeUlaw(pcm)
}

// DecodeULaw converts µ-law bytes to 16-bit little-endian PCM bytes.
func DecodeULaw(ulaw []byte) []byte {
	return g711.DecodeUlaw(ulaw)
}

// WrapWAV prepends a RIFF/WAVE header to a mono 16-bit PCM clip, the
// container the transcription endpoint expects for raw audio.
func WrapWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio: PCM clip is empty")
	}
	if len(pcm)%2 != 0 {
		return nil, errors.New("audio: PCM16 clip must have even length")
	}
	if sampleRate <= 0 {
		return nil, errors.New("audio: sample rate must be positive")
	}

	const (
		numChannels    = 1
		bitsPerSample  = 16
		audioFormatPCM = 1
		fmtChunkSize   = 16
	)

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(pcm)

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(audioFormatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes(), nil
}
