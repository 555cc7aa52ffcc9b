package sessiontime

import (
	"errors"
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	anchor := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	clock := NewAnchorClock(anchor)
	parser := NewSinceParser()

	tests := []struct {
		name    string
		input   string
		wantDay time.Time
		wantErr bool
	}{
		{name: "iso date", input: "2026-10-01", wantDay: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2026-10-10T08:30:00Z", wantDay: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
		{name: "yesterday", input: "Yesterday", wantDay: time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "  ", wantErr: true},
		{name: "gibberish", input: "whenever", wantErr: true},
		{name: "future date", input: "2027-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.ParseSince(tt.input, clock)
			if tt.wantErr {
				if !errors.Is(err, ErrUnrecognizedSince) {
					t.Fatalf("expected ErrUnrecognizedSince, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if y, m, d := got.Date(); y != tt.wantDay.Year() || m != tt.wantDay.Month() || d != tt.wantDay.Day() {
				t.Fatalf("ParseSince(%q) = %s, want day %s", tt.input, got, tt.wantDay.Format(time.DateOnly))
			}
		})
	}
}

func TestAnchorClockZero(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got := NewAnchorClock(time.Time{}).Now()
	if got.Before(before) {
		t.Fatalf("zero anchor should use the current time, got %s", got)
	}
}
