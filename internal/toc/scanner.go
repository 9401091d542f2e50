package toc

import (
	"github.com/geocine/geopub-toc/internal/markdown"
)

// Marker is the raw HTML block that activates table of contents generation
const Marker = "<!-- toc -->\n"

// MaxLevel is the deepest heading level listed in a table of contents
const MaxLevel = 2

// Heading is one table of contents entry
type Heading struct {
	Level int
	Label string
}

type scanState uint8

const (
	beforeMarker scanState = iota
	afterMarker
	inHeading
)

// Scanner collects the headings following the marker. It is a fold over a
// document's events: feed every event to Step in order, then read Headings.
type Scanner struct {
	state    scanState
	level    int
	captured bool
	headings []Heading
}

// IsMarker reports whether ev is the marker
func IsMarker(ev markdown.Event) bool {
	return ev.Kind == markdown.EventHTML && ev.Text == Marker
}

// Step advances the scanner by one event
func (s *Scanner) Step(ev markdown.Event) {
	if IsMarker(ev) {
		if s.state == beforeMarker {
			s.state = afterMarker
		}
		return
	}

	switch s.state {
	case beforeMarker:
		return

	case afterMarker:
		if ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagHeading && ev.Tag.Level <= MaxLevel {
			s.state = inHeading
			s.level = ev.Tag.Level
			s.captured = false
		}

	case inHeading:
		switch {
		case ev.Kind == markdown.EventEnd && ev.Tag.Kind == markdown.TagHeading:
			s.state = afterMarker
			s.level = 0
		case ev.Kind == markdown.EventText && !s.captured:
			// only the first text run is the label
			s.headings = append(s.headings, Heading{Level: s.level, Label: ev.Text})
			s.captured = true
		}
	}
}

// Found reports whether the marker has been seen
func (s *Scanner) Found() bool {
	return s.state != beforeMarker
}

// Headings returns the entries collected so far, in document order
func (s *Scanner) Headings() []Heading {
	return s.headings
}

// Scan folds events through a fresh Scanner and returns its headings
func Scan(events markdown.Events) []Heading {
	var s Scanner
	for _, ev := range events {
		s.Step(ev)
	}
	return s.Headings()
}
