package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-widget/internal/fetcher"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
	"github.com/smokyabdulrahman/prayer-widget/internal/weather"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeSchedules struct {
	result    fetcher.Result
	fetches   atomic.Int32
	refreshes atomic.Int32
}

func (f *fakeSchedules) Fetch(_ context.Context, date time.Time) fetcher.Result {
	f.fetches.Add(1)
	return f.resultFor(date)
}

func (f *fakeSchedules) Refresh(_ context.Context, date time.Time) fetcher.Result {
	f.refreshes.Add(1)
	return f.resultFor(date)
}

func (f *fakeSchedules) resultFor(date time.Time) fetcher.Result {
	r := f.result
	if r.Origin == fetcher.Cache || r.Origin == fetcher.Network {
		r.Date = date.Format("2006-01-02")
	}
	return r
}

type fakeTemps struct {
	temp      weather.Temperature
	refreshes atomic.Int32
}

func (f *fakeTemps) Current(context.Context) weather.Temperature { return f.temp }

func (f *fakeTemps) Refresh(context.Context) weather.Temperature {
	f.refreshes.Add(1)
	return f.temp
}

type fakeSink struct {
	err   error
	plays int
	stops int
}

func (s *fakeSink) Play() error {
	s.plays++
	return s.err
}

func (s *fakeSink) Stop() { s.stops++ }

type fakeFired struct {
	mu     sync.Mutex
	marked map[string][]string
}

func (f *fakeFired) MarkFired(_ context.Context, date, name string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marked == nil {
		f.marked = map[string][]string{}
	}
	f.marked[date] = append(f.marked[date], name)
	return nil
}

func (f *fakeFired) Fired(_ context.Context, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked[date]...), nil
}

func (f *fakeFired) names(date string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked[date]...)
}

// blockingFired stalls every call until release is closed.
type blockingFired struct {
	release chan struct{}
	calls   atomic.Int32
}

func (f *blockingFired) MarkFired(context.Context, string, string, time.Time) error {
	f.calls.Add(1)
	<-f.release
	return nil
}

func (f *blockingFired) Fired(context.Context, string) ([]string, error) {
	f.calls.Add(1)
	<-f.release
	return nil, nil
}

type frames struct {
	mu   sync.Mutex
	list []Frame
}

func (r *frames) Render(f Frame) {
	r.mu.Lock()
	r.list = append(r.list, f)
	r.mu.Unlock()
}

func (r *frames) last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list[len(r.list)-1]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testSchedule() prayer.Schedule {
	s := prayer.Schedule{}
	for name, raw := range map[string]string{
		prayer.Fajr:    "05:00",
		prayer.Sunrise: "06:30",
		prayer.Dhuhr:   "12:45",
		prayer.Asr:     "15:50",
		prayer.Maghrib: "18:20",
		prayer.Isha:    "19:40",
	} {
		e, _ := prayer.NewEntry24h(raw)
		s[name] = e
	}
	return s
}

func at(day, hour, min, sec int) time.Time {
	return time.Date(2026, 2, day, hour, min, sec, 0, time.Local)
}

type harness struct {
	c      *Controller
	clock  *fakeClock
	sched  *fakeSchedules
	temps  *fakeTemps
	sink   *fakeSink
	fired  *fakeFired
	frames *frames
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()
	h := &harness{
		clock:  &fakeClock{now: start},
		sched:  &fakeSchedules{result: fetcher.Result{Schedule: testSchedule(), Origin: fetcher.Cache}},
		temps:  &fakeTemps{temp: weather.Temperature{Celsius: 21.6, Available: true}},
		sink:   &fakeSink{},
		fired:  &fakeFired{},
		frames: &frames{},
	}
	h.c = New(Options{
		Clock:        h.clock,
		Schedules:    h.sched,
		Temperatures: h.temps,
		Sink:         h.sink,
		Fired:        h.fired,
		Renderer:     h.frames,
		Language:     "en",
		TimeFormat:   "24h",
		Log:          zerolog.Nop(),
	})
	return h
}

// tick advances the clock and runs one tick, completing any refresh it starts.
func (h *harness) tick(t *testing.T, now time.Time) {
	t.Helper()
	h.clock.Set(now)
	started := !h.c.refreshing
	h.c.handleTick(context.Background(), now)
	if started && h.c.refreshing {
		select {
		case r := <-h.c.results:
			h.c.handleRefreshResult(r)
			h.c.handleTick(context.Background(), now)
		case <-time.After(2 * time.Second):
			t.Fatal("refresh did not finish")
		}
	}
}

func hasEvent(events []event, want event) bool {
	for _, ev := range events {
		if ev == want {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Alarm
// ---------------------------------------------------------------------------

func TestTick_FiresOncePerPrayer(t *testing.T) {
	h := newHarness(t, at(28, 4, 59, 58))
	h.tick(t, at(28, 4, 59, 58))
	if h.sink.plays != 0 {
		t.Fatalf("alarm played before Fajr")
	}

	h.tick(t, at(28, 5, 0, 0))
	if h.sink.plays != 1 {
		t.Fatalf("plays = %d, want 1", h.sink.plays)
	}
	if h.c.state != Alarming || !h.c.blinking {
		t.Errorf("state = %v blinking = %v, want alarming and blinking", h.c.state, h.c.blinking)
	}
	ev := h.c.drainEvents()
	if !hasEvent(ev, alarmStarted) || !hasEvent(ev, blinkStarted) {
		t.Errorf("events = %v, want alarm and blink start", ev)
	}
	h.c.writes.Wait()
	if got := h.fired.names("2026-02-28"); len(got) != 1 || got[0] != prayer.Fajr {
		t.Errorf("persisted fired = %v, want [Fajr]", got)
	}

	for sec := 1; sec < 60; sec += 7 {
		h.tick(t, at(28, 5, 0, sec))
	}
	if h.sink.plays != 1 {
		t.Errorf("plays = %d after repeated ticks in the same minute, want 1", h.sink.plays)
	}
}

func TestTick_SunriseNeverAlarms(t *testing.T) {
	h := newHarness(t, at(28, 6, 30, 0))
	h.tick(t, at(28, 6, 30, 0))
	if h.sink.plays != 0 || h.c.state != Idle {
		t.Errorf("sunrise triggered the alarm: plays=%d state=%v", h.sink.plays, h.c.state)
	}
}

func TestTick_RestartInsidePrayerMinuteStaysQuiet(t *testing.T) {
	h := newHarness(t, at(28, 12, 45, 10))
	h.fired.marked = map[string][]string{"2026-02-28": {prayer.Dhuhr}}

	h.tick(t, at(28, 12, 45, 10))
	if h.sink.plays != 0 {
		t.Errorf("plays = %d, want 0 for an alarm already fired before restart", h.sink.plays)
	}
}

func TestTick_HoldsAlarmUntilFiredLogLoaded(t *testing.T) {
	h := newHarness(t, at(27, 12, 0, 0))
	h.tick(t, at(27, 12, 0, 0))

	// the day changes while a refresh is still outstanding
	h.c.refreshing = true
	h.fired.marked = map[string][]string{"2026-02-28": {prayer.Dhuhr}}
	h.c.handleTick(context.Background(), at(28, 12, 45, 0))
	if h.sink.plays != 0 {
		t.Fatalf("plays = %d before the fired log was loaded, want 0", h.sink.plays)
	}

	h.c.refreshing = false
	h.tick(t, at(28, 12, 45, 1))
	if h.sink.plays != 0 {
		t.Errorf("plays = %d, want 0 for an alarm the log already holds", h.sink.plays)
	}
	if !h.c.firedLoaded || !h.c.fired[prayer.Dhuhr] {
		t.Errorf("fired = %v loaded = %v, want Dhuhr loaded", h.c.fired, h.c.firedLoaded)
	}
}

func TestTick_FiredLogStaysOffTickPath(t *testing.T) {
	log := &blockingFired{release: make(chan struct{})}
	defer close(log.release)

	h := newHarness(t, at(28, 5, 0, 0))
	h.c.opts.Fired = log
	h.c.firedLoaded = true
	h.c.firedDay = "2026-02-28"
	h.c.lastAttempt = "2026-02-28"
	h.c.schedule = testSchedule()

	done := make(chan struct{})
	go func() {
		h.c.handleTick(context.Background(), at(28, 5, 0, 0))
		h.c.handleTick(context.Background(), at(28, 5, 0, 1))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick blocked on the fired log")
	}
	if h.sink.plays != 1 {
		t.Errorf("plays = %d, want 1", h.sink.plays)
	}
}

func TestTick_NewDayResetsFired(t *testing.T) {
	h := newHarness(t, at(27, 5, 0, 0))
	h.tick(t, at(27, 5, 0, 0))
	h.c.handleAlarmTimeout()

	h.tick(t, at(28, 5, 0, 0))
	if h.sink.plays != 2 {
		t.Errorf("plays = %d, want Fajr to fire again on the next day", h.sink.plays)
	}
}

func TestAlarm_Timeouts(t *testing.T) {
	h := newHarness(t, at(28, 15, 50, 0))
	h.tick(t, at(28, 15, 50, 0))
	h.c.drainEvents()

	h.c.handleBlinkTimeout()
	if h.c.state != Alarming || h.c.blinking {
		t.Fatalf("after blink timeout: state=%v blinking=%v, want alarming without blink", h.c.state, h.c.blinking)
	}
	if !hasEvent(h.c.drainEvents(), blinkStopped) {
		t.Error("blink stop not signalled")
	}

	h.c.handleAlarmTimeout()
	if h.c.state != Idle {
		t.Errorf("state = %v, want idle", h.c.state)
	}
	if h.sink.stops != 1 {
		t.Errorf("sink stops = %d, want 1", h.sink.stops)
	}

	h.c.handleAlarmTimeout()
	if h.sink.stops != 1 {
		t.Error("alarm timeout in idle state stopped the sink again")
	}
}

func TestAlarm_SoundFailureBlinksOnly(t *testing.T) {
	h := newHarness(t, at(28, 18, 20, 0))
	h.sink.err = errors.New("no audio device")

	h.tick(t, at(28, 18, 20, 0))
	if h.c.state != Blinking {
		t.Fatalf("state = %v, want blinking", h.c.state)
	}
	ev := h.c.drainEvents()
	if hasEvent(ev, alarmStarted) {
		t.Error("alarm timer requested although sound failed")
	}
	if !hasEvent(ev, blinkStarted) {
		t.Error("blink not started")
	}

	h.c.handleBlinkTimeout()
	if h.c.state != Idle {
		t.Errorf("state = %v, want idle", h.c.state)
	}
}

func TestBlink_TogglesCountdown(t *testing.T) {
	h := newHarness(t, at(28, 19, 40, 0))
	h.tick(t, at(28, 19, 40, 0))

	if !h.frames.last().Blank {
		t.Fatal("countdown visible at blink start, want off phase")
	}
	h.c.handleBlink()
	if h.frames.last().Blank {
		t.Error("countdown hidden after first toggle")
	}
	h.c.handleBlink()
	if !h.frames.last().Blank {
		t.Error("countdown visible after second toggle")
	}

	h.c.handleBlinkTimeout()
	if h.frames.last().Blank {
		t.Error("countdown hidden after blink ended")
	}
	h.c.handleBlink()
	if h.frames.last().Blank {
		t.Error("stray blink tick hid the countdown")
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestRefresh_OncePerDay(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	h.tick(t, at(28, 8, 0, 0))
	h.tick(t, at(28, 9, 0, 0))
	h.tick(t, at(28, 23, 59, 59))
	if n := h.sched.fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}

	h.tick(t, at(28, 23, 59, 59).Add(time.Second))
	if n := h.sched.fetches.Load(); n != 2 {
		t.Errorf("fetches = %d after midnight, want 2", n)
	}
}

func TestRefresh_SingleInFlight(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	ctx := context.Background()

	h.c.handleTick(ctx, at(28, 8, 0, 0))
	h.c.startRefresh(ctx, at(28, 8, 0, 1), true)
	r := <-h.c.results
	h.c.handleRefreshResult(r)

	if n := h.sched.fetches.Load() + h.sched.refreshes.Load(); n != 1 {
		t.Errorf("source calls = %d, want 1", n)
	}
}

func TestRefresh_RetriesAfterFailure(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	h.sched.result = fetcher.Result{Schedule: prayer.Schedule{}, Origin: fetcher.Empty}

	h.tick(t, at(28, 8, 0, 0))
	h.tick(t, at(28, 8, 5, 0))
	if n := h.sched.fetches.Load(); n != 1 {
		t.Fatalf("fetches = %d before retry interval, want 1", n)
	}

	h.sched.result = fetcher.Result{Schedule: testSchedule(), Origin: fetcher.Network}
	h.tick(t, at(28, 8, 0, 0).Add(RetryInterval))
	if n := h.sched.fetches.Load(); n != 2 {
		t.Fatalf("fetches = %d after retry interval, want 2", n)
	}
	if len(h.c.schedule) != 6 {
		t.Errorf("schedule not applied after retry: %v", h.c.schedule)
	}
	if !h.c.retryAt.IsZero() {
		t.Error("retry still scheduled after a successful fetch")
	}
}

func TestRefresh_EmptyKeepsPreviousSchedule(t *testing.T) {
	h := newHarness(t, at(27, 8, 0, 0))
	h.tick(t, at(27, 8, 0, 0))

	h.sched.result = fetcher.Result{Schedule: prayer.Schedule{}, Origin: fetcher.Empty}
	h.tick(t, at(28, 8, 0, 0))

	if len(h.c.schedule) != 6 {
		t.Fatalf("schedule dropped on empty refresh: %v", h.c.schedule)
	}
	if !h.frames.last().Stale {
		t.Error("frame not marked stale for a schedule from yesterday")
	}
}

func TestRefresh_CronBypassesCaches(t *testing.T) {
	h := newHarness(t, at(28, 0, 5, 0))
	h.sched.result = fetcher.Result{Date: "2026-02-27", Schedule: testSchedule(), Origin: fetcher.Fallback}
	h.tick(t, at(28, 0, 5, 0))

	h.c.requestRefresh()
	h.c.requestRefresh()
	select {
	case <-h.c.cronReq:
	default:
		t.Fatal("cron request not queued")
	}
	h.sched.result = fetcher.Result{Schedule: testSchedule(), Origin: fetcher.Network}
	h.c.handleCron(context.Background(), at(28, 0, 5, 1))
	if !h.c.refreshing {
		t.Fatal("scheduled refresh not started")
	}
	h.c.handleRefreshResult(<-h.c.results)

	if n := h.sched.refreshes.Load(); n != 1 {
		t.Errorf("schedule refreshes = %d, want 1", n)
	}
	if n := h.temps.refreshes.Load(); n != 1 {
		t.Errorf("temperature refreshes = %d, want 1", n)
	}
}

func TestRefresh_CronSkipsWhenTodayResolved(t *testing.T) {
	tests := []struct {
		name   string
		origin fetcher.Origin
	}{
		{"network", fetcher.Network},
		{"cache", fetcher.Cache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, at(28, 0, 0, 1))
			h.sched.result = fetcher.Result{Schedule: testSchedule(), Origin: tt.origin}
			h.tick(t, at(28, 0, 0, 1))

			h.c.handleCron(context.Background(), at(28, 0, 5, 0))
			if h.c.refreshing {
				t.Fatal("scheduled refresh started although today's schedule is resolved")
			}
			if n := h.sched.refreshes.Load(); n != 0 {
				t.Errorf("schedule refreshes = %d, want 0", n)
			}
			if n := h.sched.fetches.Load(); n != 1 {
				t.Errorf("fetches = %d, want 1", n)
			}

			// a new day is not resolved yet
			h.c.handleCron(context.Background(), at(29, 0, 5, 0))
			if !h.c.refreshing {
				t.Error("scheduled refresh skipped on a day without a fetched schedule")
			}
			h.c.handleRefreshResult(<-h.c.results)
		})
	}
}

func TestRefresh_OlderFallbackKeepsNewerSchedule(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	h.sched.result = fetcher.Result{Schedule: testSchedule(), Origin: fetcher.Network}
	h.tick(t, at(28, 8, 0, 0))

	older := testSchedule()
	older[prayer.Fajr] = prayer.Entry{H12: "5:02 AM", H24: "05:02"}
	h.sched.result = fetcher.Result{Date: "2026-02-27", Schedule: older, Origin: fetcher.Fallback}
	h.c.startRefresh(context.Background(), at(28, 9, 0, 0), true)
	h.c.handleRefreshResult(<-h.c.results)

	if h.c.schedDay != "2026-02-28" {
		t.Errorf("schedDay = %q, want 2026-02-28", h.c.schedDay)
	}
	if h.c.origin != fetcher.Network {
		t.Errorf("origin = %v, want network", h.c.origin)
	}
	if got := h.c.schedule[prayer.Fajr].H24; got != "05:00" {
		t.Errorf("Fajr = %q, want today's 05:00", got)
	}
	if h.frames.last().Stale {
		t.Error("frame marked stale although today's schedule was kept")
	}
	if !h.c.retryAt.IsZero() {
		t.Error("retry scheduled although today's schedule is held")
	}
}

func TestRefresh_NewerFallbackReplacesOlderSchedule(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	h.sched.result = fetcher.Result{Date: "2026-02-26", Schedule: testSchedule(), Origin: fetcher.Fallback}
	h.tick(t, at(28, 8, 0, 0))

	h.sched.result = fetcher.Result{Date: "2026-02-27", Schedule: testSchedule(), Origin: fetcher.Fallback}
	h.c.startRefresh(context.Background(), at(28, 8, 1, 0), false)
	h.c.handleRefreshResult(<-h.c.results)

	if h.c.schedDay != "2026-02-27" || h.c.origin != fetcher.Fallback {
		t.Errorf("schedDay = %q origin = %v, want the newer fallback", h.c.schedDay, h.c.origin)
	}
	if !h.frames.last().Stale {
		t.Error("fallback schedule not marked stale")
	}
	if h.c.retryAt.IsZero() {
		t.Error("no retry scheduled after a fallback")
	}
}

func TestRefresh_KeepsLastGoodTemperature(t *testing.T) {
	h := newHarness(t, at(28, 8, 0, 0))
	h.tick(t, at(28, 8, 0, 0))

	h.temps.temp = weather.Temperature{}
	h.c.startRefresh(context.Background(), at(28, 9, 0, 0), true)
	h.c.handleRefreshResult(<-h.c.results)

	if got := h.frames.last().Temperature; got != "22°C" {
		t.Errorf("Temperature = %q, want 22°C", got)
	}
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

func TestFrame_Rows(t *testing.T) {
	h := newHarness(t, at(28, 13, 0, 0))
	h.tick(t, at(28, 13, 0, 0))

	f := h.frames.last()
	if len(f.Rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(f.Rows))
	}
	for _, row := range f.Rows {
		if row.Next != (row.Name == prayer.Asr) {
			t.Errorf("row %s Next = %v", row.Name, row.Next)
		}
	}
	if f.Rows[0].Time != "05:00" {
		t.Errorf("Fajr time = %q", f.Rows[0].Time)
	}
	if f.Clock != "13:00:00" {
		t.Errorf("Clock = %q", f.Clock)
	}
	if f.Countdown != "Asr in 02:50:00" {
		t.Errorf("Countdown = %q", f.Countdown)
	}
	if f.Temperature != "22°C" {
		t.Errorf("Temperature = %q", f.Temperature)
	}
	if f.Stale {
		t.Error("today's schedule marked stale")
	}
}

func TestFrame_TwelveHourAndArabic(t *testing.T) {
	h := newHarness(t, at(28, 13, 0, 0))
	h.c.opts.TimeFormat = "12h"
	h.c.opts.Language = "ar"
	h.tick(t, at(28, 13, 0, 0))

	f := h.frames.last()
	if f.Rows[3].Time != "3:50 PM" {
		t.Errorf("Asr time = %q, want 3:50 PM", f.Rows[3].Time)
	}
	if f.Rows[3].Label != "العصر" {
		t.Errorf("Asr label = %q", f.Rows[3].Label)
	}
	if !strings.Contains(f.Date, "رمضان") {
		t.Errorf("Date = %q, want Arabic Hijri date", f.Date)
	}
}

func TestFrame_DateAlternates(t *testing.T) {
	h := newHarness(t, at(28, 13, 0, 0))
	h.tick(t, at(28, 13, 0, 0))

	if got := h.frames.last().Date; got != "11 Ramadan 1447 AH" {
		t.Errorf("first Date = %q, want Hijri", got)
	}
	h.c.handleToggle()
	if got := h.frames.last().Date; got != "28 February 2026" {
		t.Errorf("toggled Date = %q, want Gregorian", got)
	}
	h.c.handleToggle()
	if got := h.frames.last().Date; got != "11 Ramadan 1447 AH" {
		t.Errorf("second toggle Date = %q, want Hijri", got)
	}
}

func TestFrame_NoSchedule(t *testing.T) {
	h := newHarness(t, at(28, 13, 0, 0))
	h.sched.result = fetcher.Result{Schedule: prayer.Schedule{}, Origin: fetcher.Empty}
	h.temps.temp = weather.Temperature{}
	h.tick(t, at(28, 13, 0, 0))

	f := h.frames.last()
	if f.Countdown != "-- --" {
		t.Errorf("Countdown = %q, want placeholder", f.Countdown)
	}
	if f.Temperature != "N/A" {
		t.Errorf("Temperature = %q, want N/A", f.Temperature)
	}
	for _, row := range f.Rows {
		if row.Time != "--:--" || row.Next {
			t.Errorf("row = %+v, want placeholder", row)
		}
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_RendersAndStops(t *testing.T) {
	rendered := make(chan Frame, 16)
	sink := &fakeSink{}
	c := New(Options{
		Clock:     &fakeClock{now: at(28, 13, 0, 0)},
		Schedules: &fakeSchedules{result: fetcher.Result{Schedule: testSchedule(), Origin: fetcher.Cache}},
		Sink:      sink,
		Renderer: RendererFunc(func(f Frame) {
			select {
			case rendered <- f:
			default:
			}
		}),
		Log: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-rendered:
	case <-time.After(3 * time.Second):
		t.Fatal("no frame rendered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop")
	}
	if sink.stops != 1 {
		t.Errorf("sink stops = %d, want 1 on shutdown", sink.stops)
	}
}

func TestRun_InvalidRefreshSpec(t *testing.T) {
	c := New(Options{
		Schedules:   &fakeSchedules{},
		RefreshSpec: "not a cron spec",
		Log:         zerolog.Nop(),
	})
	if err := c.Run(context.Background()); err == nil {
		t.Error("expected error for invalid refresh spec")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{Idle: "idle", Alarming: "alarming", Blinking: "blinking"}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
