package display

import (
	"io"
	"strings"
	"sync"

	"github.com/smokyabdulrahman/prayer-widget/internal/widget"
)

// Screen draws widget frames. On a terminal it redraws the whole screen;
// otherwise it writes one status line per frame, which suits status bars.
type Screen struct {
	mu   sync.Mutex
	w    io.Writer
	live bool
}

func NewScreen(w io.Writer, live bool) *Screen {
	return &Screen{w: w, live: live}
}

// Start hides the cursor on a live screen.
func (s *Screen) Start() {
	if s.live {
		s.write(hideCursor)
	}
}

// Stop restores the cursor on a live screen.
func (s *Screen) Stop() {
	if s.live {
		s.write(showCursor + "\n")
	}
}

func (s *Screen) Render(f widget.Frame) {
	if s.live {
		s.write(clearScreen + Page(f))
		return
	}
	s.write(Line(f) + "\n")
}

func (s *Screen) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, text)
}

// Page renders a frame as a multi-line block.
func Page(f widget.Frame) string {
	var sb strings.Builder

	sb.WriteString("  " + Bold(f.Date) + "\n")
	sb.WriteString("  " + Bold(f.Clock) + "\n")
	info := f.Temperature
	if f.Location != "" {
		info = f.Location + "  " + info
	}
	sb.WriteString("  " + Gray(info) + "\n\n")

	tbl := NewTable(nil)
	for i, row := range f.Rows {
		tbl.AddRow(row.Label, row.Time)
		if row.Next {
			tbl.Highlight(i)
		}
	}
	sb.WriteString(tbl.Render())
	sb.WriteString("\n")

	sb.WriteString("  " + countdown(f) + "\n")
	if f.Stale {
		sb.WriteString("  " + Dim("offline, showing the last known times") + "\n")
	}

	return sb.String()
}

// Line renders a frame as a single line: "Asr in 02:50:00 | 22°C".
func Line(f widget.Frame) string {
	parts := []string{countdown(f), f.Temperature}
	if f.Stale {
		parts = append(parts, "offline")
	}
	return strings.Join(parts, " | ")
}

func countdown(f widget.Frame) string {
	if f.Blank {
		return strings.Repeat(" ", len([]rune(f.Countdown)))
	}
	switch f.State {
	case widget.Alarming, widget.Blinking:
		return Alert(f.Countdown)
	default:
		return Yellow(f.Countdown)
	}
}
