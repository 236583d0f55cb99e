// Package serial turns the game controller's serial byte stream into typed events.
package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a serial event variant
type Kind int

const (
	KindLivesUpdate Kind = iota + 1
	KindRestart
	KindResetTimer
)

func (k Kind) String() string {
	switch k {
	case KindLivesUpdate:
		return "LivesUpdate"
	case KindRestart:
		return "Restart"
	case KindResetTimer:
		return "ResetTimer"
	default:
		return "Unknown"
	}
}

// Event is one classified line from the controller. Lives is only meaningful
// for KindLivesUpdate.
type Event struct {
	Kind  Kind
	Lives int
}

// LivesUpdate returns a LivesUpdate event carrying n
func LivesUpdate(n int) Event {
	return Event{Kind: KindLivesUpdate, Lives: n}
}

// Restart returns a Restart event
func Restart() Event {
	return Event{Kind: KindRestart}
}

// ResetTimer returns a ResetTimer event
func ResetTimer() Event {
	return Event{Kind: KindResetTimer}
}

func (e Event) String() string {
	if e.Kind == KindLivesUpdate {
		return fmt.Sprintf("LivesUpdate(%d)", e.Lives)
	}
	return e.Kind.String()
}

// ParseLine classifies one line of controller output. The line is trimmed and
// matched case-insensitively; ok is false for anything that is not a keyword
// or a plain decimal number.
func ParseLine(line string) (ev Event, ok bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Event{}, false
	case strings.EqualFold(line, "restart"):
		return Restart(), true
	case strings.EqualFold(line, "reset timer"):
		return ResetTimer(), true
	case isDigits(line):
		n, err := strconv.Atoi(line)
		if err != nil {
			// overflow
			return Event{}, false
		}
		return LivesUpdate(n), true
	}
	return Event{}, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
