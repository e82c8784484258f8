package audio

import (
	"context"
	"io"
	"os/exec"
)

// Player renders an audio stream. Play blocks until the stream ends, the
// context is cancelled, or the sink fails.
type Player interface {
	Play(ctx context.Context, r io.Reader) error
}

// WriterPlayer streams audio into w in small chunks, checking for
// cancellation between chunks so a superseded utterance stops quickly.
type WriterPlayer struct {
	W io.Writer
}

func (p WriterPlayer) Play(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := p.W.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// CommandPlayer pipes audio into an external player process such as aplay
// or ffplay. Cancelling the context kills the process.
type CommandPlayer struct {
	Command string
	Args    []string
}

func (p CommandPlayer) Play(ctx context.Context, r io.Reader) error {
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = r
	return cmd.Run()
}

// Discard swallows audio; the default sink when no player is configured.
var Discard Player = WriterPlayer{W: io.Discard}
