package alarm

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := Bell{W: &buf}

	if err := b.Play(); err != nil {
		t.Fatalf("Play error: %v", err)
	}
	b.Stop()
	if buf.String() != "\a" {
		t.Errorf("Bell wrote %q, want BEL", buf.String())
	}
}

func TestMute(t *testing.T) {
	if err := (Mute{}).Play(); !errors.Is(err, ErrMuted) {
		t.Errorf("Mute.Play() = %v, want ErrMuted", err)
	}
}

func TestNewCommand_Empty(t *testing.T) {
	if _, err := NewCommand("   ", zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestCommand_MissingBinary(t *testing.T) {
	c, err := NewCommand("definitely-not-a-real-player-binary --loop", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Play(); err == nil {
		t.Fatal("expected error for missing binary")
	}
	c.Stop()
}

func TestCommand_PlayAndStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses touch and sleep")
	}
	marker := filepath.Join(t.TempDir(), "played")

	script := filepath.Join(t.TempDir(), "player.sh")
	os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\nexec sleep 30\n"), 0o755)

	c, err := NewCommand("sh "+script, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Play(); err != nil {
		t.Fatalf("Play error: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("player did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.Stop()
	c.mu.Lock()
	running := c.cancel != nil
	c.mu.Unlock()
	if running {
		t.Error("Stop did not clear the running player")
	}
}
