// Package display renders the widget to a terminal with raw ANSI escape
// codes.
//
// Colors follow NO_COLOR (https://no-color.org/) and FORCE_COLOR, and are off
// when stdout is not a terminal.
package display

import (
	"fmt"
	"io"
	"os"
)

const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	cyan    = "\033[36m"
	fgGray  = "\033[90m"
	reverse = "\033[7m"

	clearScreen = "\033[H\033[2J"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether w is a character device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// SetEnabled overrides the detected color state. --json and tests use it.
func SetEnabled(b bool) {
	enabled = b
}

func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled || text == "" {
		return text
	}
	return code + text + reset
}

func Bold(text string) string   { return wrap(bold, text) }
func Dim(text string) string    { return wrap(dim, text) }
func Red(text string) string    { return wrap(red, text) }
func Green(text string) string  { return wrap(green, text) }
func Yellow(text string) string { return wrap(yellow, text) }
func Cyan(text string) string   { return wrap(cyan, text) }
func Gray(text string) string   { return wrap(fgGray, text) }

// Accent marks the next prayer.
func Accent(text string) string {
	return wrap(bold+cyan, text)
}

// Alert marks the countdown while an alarm is sounding.
func Alert(text string) string {
	return wrap(bold+reverse+red, text)
}

func Boldf(format string, a ...interface{}) string {
	return Bold(fmt.Sprintf(format, a...))
}
