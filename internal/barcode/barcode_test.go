package barcode

import (
	"testing"
	"time"
)

func burst(payload string, gap time.Duration, terminator rune) []KeyPress {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	keys := make([]KeyPress, 0, len(payload)+1)
	at := base
	for _, r := range payload {
		keys = append(keys, KeyPress{Rune: r, At: at})
		at = at.Add(gap)
	}
	if terminator != 0 {
		keys = append(keys, KeyPress{Rune: terminator, At: at})
	}
	return keys
}

func TestClassifyScannerBurst(t *testing.T) {
	got := Classify(burst("8991002101234", 12*time.Millisecond, '\r'))
	if got.Source != SourceScanner {
		t.Fatalf("source = %q, want scanner", got.Source)
	}
	if got.Payload != "8991002101234" {
		t.Fatalf("payload = %q", got.Payload)
	}
}

func TestClassifyNewlineTerminatorCounts(t *testing.T) {
	got := Classify(burst("8991002101234", 10*time.Millisecond, '\n'))
	if got.Source != SourceScanner {
		t.Fatalf("source = %q, want scanner", got.Source)
	}
}

func TestClassifySlowTypingIsManual(t *testing.T) {
	got := Classify(burst("8991002101234", 120*time.Millisecond, '\r'))
	if got.Source != SourceManual {
		t.Fatalf("source = %q, want manual", got.Source)
	}
	if got.Payload != "8991002101234" {
		t.Fatalf("payload should survive classification, got %q", got.Payload)
	}
}

func TestClassifySingleSlowGapIsManual(t *testing.T) {
	keys := burst("89910021", 10*time.Millisecond, '\r')
	// one pause in the middle of an otherwise fast burst
	for i := 5; i < len(keys); i++ {
		keys[i].At = keys[i].At.Add(200 * time.Millisecond)
	}
	got := Classify(keys)
	if got.Source != SourceManual {
		t.Fatalf("source = %q, want manual", got.Source)
	}
}

func TestClassifyGapAtThresholdStillScans(t *testing.T) {
	got := Classify(burst("8991002101234", MaxInterKeyGap, '\r'))
	if got.Source != SourceScanner {
		t.Fatalf("a gap of exactly %v should still classify as scanner", MaxInterKeyGap)
	}
}

func TestClassifyMissingTerminatorIsManual(t *testing.T) {
	got := Classify(burst("8991002101234", 10*time.Millisecond, 0))
	if got.Source != SourceManual {
		t.Fatalf("source = %q, want manual", got.Source)
	}
}

func TestClassifyShortPayloadIsManual(t *testing.T) {
	got := Classify(burst("1234567", 10*time.Millisecond, '\r'))
	if got.Source != SourceManual {
		t.Fatalf("source = %q, want manual", got.Source)
	}
	if got.Payload != "1234567" {
		t.Fatalf("payload = %q", got.Payload)
	}
}

func TestClassifyTerminatorExcludedFromPayload(t *testing.T) {
	got := Classify(burst("12345678", 10*time.Millisecond, '\r'))
	if got.Payload != "12345678" {
		t.Fatalf("terminator leaked into payload: %q", got.Payload)
	}
}

func TestClassifyEmptyInputIsManual(t *testing.T) {
	got := Classify(nil)
	if got.Source != SourceManual || got.Payload != "" {
		t.Fatalf("got %+v", got)
	}
}
