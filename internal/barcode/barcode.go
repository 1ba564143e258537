// Package barcode tells hardware scanner bursts apart from manual typing.
// USB scanners emulate a keyboard, so the only distinguishing signals are
// keystroke timing, the terminating Enter, and the payload length.
package barcode

import "time"

const (
	// MaxInterKeyGap is the largest gap between two keystrokes that still
	// counts as a scanner burst.
	MaxInterKeyGap = 50 * time.Millisecond
	// MinLength is the shortest payload accepted as a scan.
	MinLength = 8
)

const (
	SourceScanner = "scanner"
	SourceManual  = "manual"
)

type KeyPress struct {
	Rune rune
	At   time.Time
}

type Result struct {
	Source  string
	Payload string
}

// Classify decides whether a keystroke sequence came from a hardware
// scanner. A scan is a burst whose inter-key gaps never exceed
// MaxInterKeyGap, terminated by a carriage return or newline, with at least
// MinLength payload characters. Anything else is manual input.
func Classify(keys []KeyPress) Result {
	if len(keys) == 0 {
		return Result{Source: SourceManual}
	}

	last := keys[len(keys)-1]
	terminated := last.Rune == '\r' || last.Rune == '\n'

	payload := make([]rune, 0, len(keys))
	fast := true
	for i, k := range keys {
		if k.Rune == '\r' || k.Rune == '\n' {
			continue
		}
		if i > 0 && k.At.Sub(keys[i-1].At) > MaxInterKeyGap {
			fast = false
		}
		payload = append(payload, k.Rune)
	}

	text := string(payload)
	if terminated && fast && len(payload) >= MinLength {
		return Result{Source: SourceScanner, Payload: text}
	}
	return Result{Source: SourceManual, Payload: text}
}
