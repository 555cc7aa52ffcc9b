package sessiontime

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnrecognizedSince is returned when the input matches no known form.
var ErrUnrecognizedSince = errors.New("unrecognized since expression")

// Clock supplies the reference time for relative expressions.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always returns the same instant.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock pins Now to t. The zero time anchors to the current time.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

var exactLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// SinceParser turns "yesterday", "3 days ago" or an ISO date into a cutoff.
type SinceParser struct {
	w *when.Parser
}

// NewSinceParser builds a parser with the English and common rule sets.
func NewSinceParser() *SinceParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &SinceParser{w: w}
}

// ParseSince resolves input against clock. Exact timestamps win over
// natural-language matches. Results in the future are rejected.
func (p *SinceParser) ParseSince(input string, clock Clock) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognizedSince)
	}
	now := clock.Now()

	for _, layout := range exactLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return checkPast(t.UTC(), now)
		}
	}

	r, err := p.w.Parse(strings.ToLower(input), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnrecognizedSince, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedSince, input)
	}
	return checkPast(r.Time.UTC(), now)
}

func checkPast(t, now time.Time) (time.Time, error) {
	if t.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", ErrUnrecognizedSince, t.Format(time.RFC3339))
	}
	return t, nil
}
