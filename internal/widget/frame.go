package widget

// Frame is everything a renderer needs to draw the widget once.
type Frame struct {
	Date        string // Hijri or Gregorian, alternating
	Clock       string // HH:MM:SS
	Rows        []Row
	Countdown   string
	Blank       bool // countdown hidden during the off phase of a blink
	Temperature string
	Location    string
	State       State
	Stale       bool // schedule belongs to another day
}

// Row is one prayer line.
type Row struct {
	Name  string
	Label string
	Time  string
	Next  bool
}

// Renderer draws frames. Render is called from the controller loop and
// must not block for long.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame)

func (fn RendererFunc) Render(f Frame) { fn(f) }
