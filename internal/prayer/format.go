package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatCountdown          = "countdown"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Full prayer name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Label     string // Name in the display language
	Time      string // Formatted prayer time, e.g. "15:02" or "3:02 PM"
	Remaining string // Time remaining, e.g. "2h 15m", or "now"
	Countdown string // Time remaining as HH:MM:SS
	Hours     int
	Minutes   int
	Seconds   int
	Now       bool
}

// FormatOutput formats a countdown result according to the chosen mode.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string, e.g.
// "{{.Name}} in {{.Countdown}}" -> "Asr in 01:45:00".
func FormatOutput(r Result, mode, timeFormat, lang string) string {
	if r.State == Unavailable {
		return r.Text(lang)
	}

	remaining := FormatRemaining(r.Remaining)
	if r.State == Now {
		remaining = "now"
	}
	countdown := FormatClock(r.Remaining)
	timeStr := r.At.Format(timeFormat)
	short := ShortNames[r.Prayer]

	if strings.Contains(mode, "{{") {
		total := int(r.Remaining.Seconds())
		return formatCustom(mode, FormatData{
			Name:      r.Prayer,
			ShortName: short,
			Label:     Label(r.Prayer, lang),
			Time:      timeStr,
			Remaining: remaining,
			Countdown: countdown,
			Hours:     total / 3600,
			Minutes:   (total % 3600) / 60,
			Seconds:   total % 60,
			Now:       r.State == Now,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatCountdown:
		return r.Text(lang)
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", r.Prayer, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", r.Prayer, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", r.Prayer, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", r.Prayer, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
