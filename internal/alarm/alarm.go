// Package alarm plays the prayer-time sound.
package alarm

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Sink starts and stops the alarm sound. Play must not block.
type Sink interface {
	Play() error
	Stop()
}

// Bell rings the terminal bell once per Play.
type Bell struct {
	W io.Writer
}

func (b Bell) Play() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

func (Bell) Stop() {}

// Mute never plays anything. Play reports ErrMuted so the caller can fall
// back to a visual cue.
type Mute struct{}

// ErrMuted is returned by Mute.Play.
var ErrMuted = errors.New("alarm is muted")

func (Mute) Play() error { return ErrMuted }
func (Mute) Stop()       {}

// Command runs an external player, e.g. "mpv --no-video /usr/share/athan.mp3".
// Stop kills it.
type Command struct {
	name string
	args []string
	log  zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommand splits line on whitespace into a program and its arguments.
func NewCommand(line string, log zerolog.Logger) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty alarm command")
	}
	return &Command{
		name: fields[0],
		args: fields[1:],
		log:  log.With().Str("module", "alarm").Logger(),
	}, nil
}

// Play starts the player in the background. A player still running from a
// previous Play is stopped first.
func (c *Command) Play() error {
	c.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrapf(err, "failed to start %s", c.name)
	}

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Str("command", c.name).Msg("alarm player exited")
		}
		cancel()
	}()
	return nil
}

func (c *Command) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
