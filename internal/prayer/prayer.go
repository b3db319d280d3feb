package prayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prayer names as they appear in the cache file and on the scraped page.
const (
	Fajr    = "Fajr"
	Sunrise = "Sunrise"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha"
)

// Names lists the six tracked times in chronological order.
var Names = []string{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// AlarmNames are the prayers that count for the countdown and the alarm.
// Sunrise is displayed but never alarmed.
var AlarmNames = []string{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps full prayer names to single-character abbreviations.
var ShortNames = map[string]string{
	Fajr:    "F",
	Sunrise: "S",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

var arabicNames = map[string]string{
	Fajr:    "الفجر",
	Sunrise: "الشروق",
	Dhuhr:   "الظهر",
	Asr:     "العصر",
	Maghrib: "المغرب",
	Isha:    "العشاء",
}

// Label returns the display label of a prayer in the given language ("en" or "ar").
func Label(name, lang string) string {
	if lang == "ar" {
		if l, ok := arabicNames[name]; ok {
			return l
		}
	}
	return name
}

// ErrInvalidTime is returned when a time string cannot be parsed.
var ErrInvalidTime = errors.New("invalid time")

// Entry is one prayer time in both display formats.
type Entry struct {
	H12 string `json:"12h"` // e.g. "5:17 AM"
	H24 string `json:"24h"` // e.g. "05:17"
}

// Schedule maps a prayer name to its time for a single calendar date.
type Schedule map[string]Entry

// Valid reports whether the schedule holds exactly the six tracked names,
// each with a parseable 24h value.
func (s Schedule) Valid() bool {
	if len(s) != len(Names) {
		return false
	}
	for _, name := range Names {
		if _, _, ok := s.Clock(name); !ok {
			return false
		}
	}
	return true
}

// Clock returns the hour and minute of the named prayer.
// ok is false when the prayer is absent or its 24h value is malformed.
func (s Schedule) Clock(name string) (hour, min int, ok bool) {
	e, found := s[name]
	if !found {
		return 0, 0, false
	}
	hour, min, err := parseClock(e.H24)
	if err != nil {
		return 0, 0, false
	}
	return hour, min, true
}

// Equal reports whether two schedules hold the same entries.
func (s Schedule) Equal(other Schedule) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// NewEntry12h builds an Entry from a 12-hour value such as "5:17 AM".
func NewEntry12h(raw string) (Entry, error) {
	h12 := normalize12h(raw)
	t, err := time.Parse("3:04 PM", h12)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return Entry{H12: h12, H24: t.Format("15:04")}, nil
}

// NewEntry24h builds an Entry from a 24-hour value such as "17:39" or "17:39 (CET)".
func NewEntry24h(raw string) (Entry, error) {
	hour, min, err := parseClock(raw)
	if err != nil {
		return Entry{}, err
	}
	t := time.Date(2000, 1, 1, hour, min, 0, 0, time.UTC)
	return Entry{H12: t.Format("3:04 PM"), H24: t.Format("15:04")}, nil
}

// normalize12h collapses whitespace and upper-cases the meridiem so that
// "5:17  am" parses like "5:17 AM".
func normalize12h(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// parseClock parses "HH:MM", tolerating a trailing timezone suffix like " (BST)".
func parseClock(raw string) (hour, min int, err error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}

	hour, err = clockField(parts[0], 1)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidTime, raw)
	}
	min, err = clockField(parts[1], 2)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidTime, raw)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("%w: out of range %q", ErrInvalidTime, raw)
	}

	return hour, min, nil
}

// clockField parses a run of at most two ASCII digits, at least minDigits long.
// Signs, spaces and trailing characters are rejected.
func clockField(s string, minDigits int) (int, error) {
	if len(s) < minDigits || len(s) > 2 {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
