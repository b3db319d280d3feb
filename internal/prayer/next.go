package prayer

import (
	"fmt"
	"time"
)

// State classifies a countdown result.
type State int

const (
	// Unavailable means no usable schedule exists.
	Unavailable State = iota
	// Upcoming means a prayer is ahead and Remaining is positive.
	Upcoming
	// Now means the current minute is a prayer time. This is the alarm trigger.
	Now
)

func (s State) String() string {
	switch s {
	case Upcoming:
		return "upcoming"
	case Now:
		return "now"
	default:
		return "unavailable"
	}
}

// Result is the outcome of Compute.
type Result struct {
	State     State
	Prayer    string
	At        time.Time // the prayer instant; tomorrow's date when wrapped to Fajr
	Remaining time.Duration
}

// String renders the result as "Asr in 01:45:00", "Dhuhr now" or "-- --".
func (r Result) String() string {
	return r.Text("en")
}

// Text renders the result in the given language.
func (r Result) Text(lang string) string {
	label := Label(r.Prayer, lang)
	switch r.State {
	case Now:
		if lang == "ar" {
			return label + " الآن"
		}
		return label + " now"
	case Upcoming:
		if lang == "ar" {
			return fmt.Sprintf("%s بعد %s", label, FormatClock(r.Remaining))
		}
		return fmt.Sprintf("%s in %s", label, FormatClock(r.Remaining))
	default:
		return "-- --"
	}
}

type candidate struct {
	name string
	at   time.Time
}

// Compute works out the next alarm-eligible prayer relative to now.
//
// A prayer whose hour and minute equal now's is reported as Now, ahead of any
// later prayer. Otherwise the earliest prayer strictly after now wins, with
// ties going to the earlier name in AlarmNames. When every prayer has passed
// the result wraps to tomorrow's Fajr. Malformed entries are skipped.
func Compute(now time.Time, s Schedule) Result {
	var cands []candidate
	for _, name := range AlarmNames {
		hour, min, ok := s.Clock(name)
		if !ok {
			continue
		}
		cands = append(cands, candidate{name: name, at: onDay(now, 0, hour, min)})
	}
	if len(cands) == 0 {
		return Result{State: Unavailable}
	}

	for _, c := range cands {
		if c.at.Hour() == now.Hour() && c.at.Minute() == now.Minute() {
			return Result{State: Now, Prayer: c.name, At: c.at}
		}
	}

	var next *candidate
	for i := range cands {
		if !cands[i].at.After(now) {
			continue
		}
		if next == nil || cands[i].at.Before(next.at) {
			next = &cands[i]
		}
	}

	if next == nil {
		hour, min, ok := s.Clock(Fajr)
		if !ok {
			return Result{State: Unavailable}
		}
		next = &candidate{name: Fajr, at: onDay(now, 1, hour, min)}
	}

	remaining := next.at.Sub(now)
	if remaining <= 0 {
		return Result{State: Now, Prayer: next.name, At: next.at}
	}

	return Result{State: Upcoming, Prayer: next.name, At: next.at, Remaining: remaining}
}

// onDay returns hour:min on now's calendar date shifted by days, in now's location.
func onDay(now time.Time, days, hour, min int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+days, hour, min, 0, 0, now.Location())
}

// FormatClock formats a duration as HH:MM:SS, truncating sub-second parts.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
