// Package widget drives the prayer-times display: it ticks the clock, asks
// for the next prayer, sounds the alarm once per prayer and keeps the
// schedule and temperature fresh.
package widget

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-widget/internal/alarm"
	"github.com/smokyabdulrahman/prayer-widget/internal/cache"
	"github.com/smokyabdulrahman/prayer-widget/internal/fetcher"
	"github.com/smokyabdulrahman/prayer-widget/internal/hijri"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
	"github.com/smokyabdulrahman/prayer-widget/internal/weather"
)

const (
	TickInterval   = time.Second
	ToggleInterval = 10 * time.Second
	BlinkInterval  = 500 * time.Millisecond
	AlarmDuration  = 8 * time.Second
	BlinkDuration  = 5 * time.Second

	// RetryInterval spaces out refresh attempts after a failed fetch.
	RetryInterval = 15 * time.Minute

	DefaultRefreshSpec = "5 0 * * *"
)

// State is the alarm state of the controller.
type State int

const (
	Idle State = iota
	Alarming
	Blinking
)

func (s State) String() string {
	switch s {
	case Alarming:
		return "alarming"
	case Blinking:
		return "blinking"
	default:
		return "idle"
	}
}

// Clock supplies the wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Schedules resolves a day's prayer times.
type Schedules interface {
	Fetch(ctx context.Context, date time.Time) fetcher.Result
	Refresh(ctx context.Context, date time.Time) fetcher.Result
}

// Temperatures resolves the current temperature.
type Temperatures interface {
	Current(ctx context.Context) weather.Temperature
	Refresh(ctx context.Context) weather.Temperature
}

// FiredLog remembers which alarms already went off.
type FiredLog interface {
	MarkFired(ctx context.Context, date, name string, at time.Time) error
	Fired(ctx context.Context, date string) ([]string, error)
}

// Options configure a Controller. Schedules, Sink and Renderer are required.
type Options struct {
	Clock        Clock
	Schedules    Schedules
	Temperatures Temperatures
	Sink         alarm.Sink
	Fired        FiredLog
	Renderer     Renderer

	Language    string // "en" or "ar"
	TimeFormat  string // "12h" or "24h"
	Location    string
	RefreshSpec string // cron spec; empty selects DefaultRefreshSpec

	Log zerolog.Logger
}

type event int

const (
	alarmStarted event = iota
	blinkStarted
	blinkStopped
)

type refreshResult struct {
	day     string
	sched   fetcher.Result
	temp    weather.Temperature
	hasTemp bool

	// fired holds the alarms already logged for day.
	fired    []string
	firedErr error
}

// Controller owns all widget state. Only the Run goroutine touches it.
type Controller struct {
	opts Options
	log  zerolog.Logger

	schedule prayer.Schedule
	origin   fetcher.Origin
	schedDay string
	temp     weather.Temperature
	status   prayer.Result

	state     State
	blinking  bool
	blinkOn   bool
	showHijri bool

	fired       map[string]bool
	firedDay    string
	firedLoaded bool
	writes      sync.WaitGroup

	lastAttempt string
	resolvedDay string
	retryAt     time.Time
	refreshing  bool

	events  []event
	results chan refreshResult
	cronReq chan struct{}
}

func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Sink == nil {
		opts.Sink = alarm.Mute{}
	}
	if opts.Renderer == nil {
		opts.Renderer = RendererFunc(func(Frame) {})
	}
	if opts.RefreshSpec == "" {
		opts.RefreshSpec = DefaultRefreshSpec
	}

	return &Controller{
		opts:      opts,
		log:       opts.Log.With().Str("module", "widget").Logger(),
		schedule:  prayer.Schedule{},
		showHijri: true,
		fired:     map[string]bool{},
		results:   make(chan refreshResult, 1),
		cronReq:   make(chan struct{}, 1),
	}
}

// Run drives the widget until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(c.opts.RefreshSpec, c.requestRefresh); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	tick := time.NewTicker(TickInterval)
	defer tick.Stop()
	toggle := time.NewTicker(ToggleInterval)
	defer toggle.Stop()

	var (
		blinkTicker *time.Ticker
		blinkC      <-chan time.Time
		alarmStopC  <-chan time.Time
		blinkStopC  <-chan time.Time
	)
	stopBlinkTicker := func() {
		if blinkTicker != nil {
			blinkTicker.Stop()
			blinkTicker, blinkC = nil, nil
		}
	}
	defer stopBlinkTicker()

	c.handleTick(ctx, c.opts.Clock.Now())

	for {
		select {
		case <-ctx.Done():
			c.opts.Sink.Stop()
			c.writes.Wait()
			return nil
		case <-tick.C:
			c.handleTick(ctx, c.opts.Clock.Now())
		case <-toggle.C:
			c.handleToggle()
		case <-blinkC:
			c.handleBlink()
		case <-alarmStopC:
			alarmStopC = nil
			c.handleAlarmTimeout()
		case <-blinkStopC:
			blinkStopC = nil
			c.handleBlinkTimeout()
		case r := <-c.results:
			c.handleRefreshResult(r)
		case <-c.cronReq:
			c.handleCron(ctx, c.opts.Clock.Now())
		}

		for _, ev := range c.drainEvents() {
			switch ev {
			case alarmStarted:
				alarmStopC = time.After(AlarmDuration)
			case blinkStarted:
				stopBlinkTicker()
				blinkTicker = time.NewTicker(BlinkInterval)
				blinkC = blinkTicker.C
				blinkStopC = time.After(BlinkDuration)
			case blinkStopped:
				stopBlinkTicker()
			}
		}
	}
}

// requestRefresh is called from the cron goroutine.
func (c *Controller) requestRefresh() {
	select {
	case c.cronReq <- struct{}{}:
	default:
	}
}

func (c *Controller) handleTick(ctx context.Context, now time.Time) {
	day := now.Format(cache.DateLayout)

	if day != c.firedDay {
		c.resetFired(day)
	}
	if day != c.lastAttempt || (!c.retryAt.IsZero() && !now.Before(c.retryAt)) {
		c.startRefresh(ctx, now, false)
	}

	c.status = prayer.Compute(now, c.schedule)
	if c.status.State == prayer.Now && c.firedLoaded && !c.fired[c.status.Prayer] {
		c.fired[c.status.Prayer] = true
		c.persistFired(ctx, day, c.status.Prayer, now)
		c.trigger(c.status.Prayer)
	}

	c.render(now)
}

// resetFired drops the previous day's fired set. Alarms stay held until the
// next refresh result brings today's log, so a restart inside the prayer
// minute stays quiet.
func (c *Controller) resetFired(day string) {
	c.fired = map[string]bool{}
	c.firedDay = day
	c.firedLoaded = c.opts.Fired == nil
}

func (c *Controller) mergeFired(r refreshResult) {
	if c.opts.Fired == nil || r.day != c.firedDay {
		return
	}
	if r.firedErr != nil {
		c.log.Warn().Err(r.firedErr).Str("date", r.day).Msg("could not load fired alarms")
	}
	for _, name := range r.fired {
		c.fired[name] = true
	}
	c.firedLoaded = true
}

// persistFired writes the fired alarm in the background.
func (c *Controller) persistFired(ctx context.Context, day, name string, at time.Time) {
	if c.opts.Fired == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		if err := c.opts.Fired.MarkFired(ctx, day, name, at); err != nil {
			c.log.Warn().Err(err).Str("prayer", name).Msg("could not persist fired alarm")
		}
	}()
}

func (c *Controller) trigger(name string) {
	if c.state != Idle {
		c.opts.Sink.Stop()
	}

	if err := c.opts.Sink.Play(); err != nil {
		c.log.Warn().Err(err).Str("prayer", name).Msg("alarm sound unavailable, blinking only")
		c.state = Blinking
	} else {
		c.log.Info().Str("prayer", name).Msg("prayer time")
		c.state = Alarming
		c.events = append(c.events, alarmStarted)
	}

	c.blinking = true
	c.blinkOn = false
	c.events = append(c.events, blinkStarted)
}

func (c *Controller) handleBlink() {
	if !c.blinking {
		return
	}
	c.blinkOn = !c.blinkOn
	c.render(c.opts.Clock.Now())
}

func (c *Controller) handleBlinkTimeout() {
	if !c.blinking {
		return
	}
	c.blinking = false
	c.blinkOn = false
	c.events = append(c.events, blinkStopped)
	if c.state == Blinking {
		c.state = Idle
	}
	c.render(c.opts.Clock.Now())
}

func (c *Controller) handleAlarmTimeout() {
	if c.state != Alarming {
		return
	}
	c.opts.Sink.Stop()
	if c.blinking {
		c.blinking = false
		c.blinkOn = false
		c.events = append(c.events, blinkStopped)
	}
	c.state = Idle
	c.render(c.opts.Clock.Now())
}

func (c *Controller) handleToggle() {
	c.showHijri = !c.showHijri
	c.render(c.opts.Clock.Now())
}

// handleCron runs the scheduled refresh unless today's schedule is already
// resolved from the network or today's cache entry.
func (c *Controller) handleCron(ctx context.Context, now time.Time) {
	day := now.Format(cache.DateLayout)
	if c.resolvedDay == day {
		c.log.Debug().Str("date", day).Msg("schedule already fetched today, skipping scheduled refresh")
		return
	}
	c.startRefresh(ctx, now, true)
}

// startRefresh fetches the schedule, the temperature and the fired log off
// the loop. At most one refresh runs at a time; force skips the caches.
func (c *Controller) startRefresh(ctx context.Context, now time.Time, force bool) {
	if c.refreshing {
		return
	}
	c.refreshing = true
	day := now.Format(cache.DateLayout)
	c.lastAttempt = day
	c.retryAt = time.Time{}

	go func() {
		r := refreshResult{day: day}
		if force {
			r.sched = c.opts.Schedules.Refresh(ctx, now)
		} else {
			r.sched = c.opts.Schedules.Fetch(ctx, now)
		}
		if c.opts.Temperatures != nil {
			if force {
				r.temp = c.opts.Temperatures.Refresh(ctx)
			} else {
				r.temp = c.opts.Temperatures.Current(ctx)
			}
			r.hasTemp = true
		}
		if c.opts.Fired != nil {
			r.fired, r.firedErr = c.opts.Fired.Fired(ctx, day)
		}

		select {
		case c.results <- r:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) handleRefreshResult(r refreshResult) {
	c.refreshing = false

	var replaced bool
	switch r.sched.Origin {
	case fetcher.Cache, fetcher.Network:
		replaced = true
		if r.sched.Date == r.day {
			c.resolvedDay = r.day
		}
	case fetcher.Fallback, fetcher.Empty:
		// an older schedule never replaces a newer one
		replaced = len(c.schedule) == 0 || r.sched.Date > c.schedDay
	}
	if replaced {
		c.schedule = r.sched.Schedule
		c.origin = r.sched.Origin
		c.schedDay = r.sched.Date
	}
	if c.schedDay != r.day {
		c.retryAt = c.opts.Clock.Now().Add(RetryInterval)
	}

	c.mergeFired(r)

	if r.hasTemp && (r.temp.Available || !c.temp.Available) {
		c.temp = r.temp
	}

	c.log.Debug().
		Str("date", r.day).
		Stringer("origin", r.sched.Origin).
		Str("temperature", c.temp.String()).
		Msg("refresh finished")

	c.render(c.opts.Clock.Now())
}

func (c *Controller) drainEvents() []event {
	ev := c.events
	c.events = nil
	return ev
}

func (c *Controller) render(now time.Time) {
	c.opts.Renderer.Render(c.frame(now))
}

func (c *Controller) frame(now time.Time) Frame {
	lang := c.opts.Language

	f := Frame{
		Clock:       now.Format("15:04:05"),
		Countdown:   c.status.Text(lang),
		Blank:       c.blinking && !c.blinkOn,
		Temperature: c.temp.String(),
		Location:    c.opts.Location,
		State:       c.state,
		Stale:       c.schedDay != "" && c.schedDay != now.Format(cache.DateLayout),
	}

	if c.showHijri {
		f.Date = hijri.FromTime(now).Format(lang)
	} else {
		f.Date = hijri.FormatGregorian(now, lang)
	}

	for _, name := range prayer.Names {
		row := Row{Name: name, Label: prayer.Label(name, lang), Time: "--:--"}
		if e, ok := c.schedule[name]; ok {
			row.Time = e.H24
			if c.opts.TimeFormat == "12h" && e.H12 != "" {
				row.Time = e.H12
			}
		}
		row.Next = c.status.State != prayer.Unavailable && c.status.Prayer == name
		f.Rows = append(f.Rows, row)
	}

	return f
}
