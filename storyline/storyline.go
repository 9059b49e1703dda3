// Package storyline turns a topic into an ordered list of storypoints, one per slide.
package storyline

import (
	"strconv"
	"strings"

	"github.com/teranos/slideinspo/sym"
)

// LabelPrefix starts every slide label: "Slide 1", "Slide 2", ...
const LabelPrefix = "Slide "

// Entry is one slide of a storyline
type Entry struct {
	Label      string `json:"label"`
	Storypoint string `json:"storypoint"`
}

// Storyline is an ordered list of entries; entry order is presentation order
type Storyline struct {
	Topic   string  `json:"topic"`
	Entries []Entry `json:"entries"`
}

// Label returns the label of the n-th slide, counting from 1
func Label(n int) string {
	return LabelPrefix + strconv.Itoa(n)
}

// New builds a storyline from storypoints, labelling them Slide 1..N
func New(topic string, storypoints []string) *Storyline {
	entries := make([]Entry, len(storypoints))
	for i, sp := range storypoints {
		entries[i] = Entry{Label: Label(i + 1), Storypoint: sp}
	}
	return &Storyline{Topic: topic, Entries: entries}
}

// Len returns the number of slides
func (s *Storyline) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Storypoints returns the storypoints in order
func (s *Storyline) Storypoints() []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.Entries[i].Storypoint
	}
	return out
}

// Map returns label -> storypoint. Order is lost; use Entries for order.
func (s *Storyline) Map() map[string]string {
	out := make(map[string]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[s.Entries[i].Label] = s.Entries[i].Storypoint
	}
	return out
}

// Pretty renders one "⚡ label: storypoint" line per entry
func (s *Storyline) Pretty() string {
	lines := make([]string, s.Len())
	for i := range lines {
		lines[i] = sym.Storyline + " " + s.Entries[i].Label + ": " + s.Entries[i].Storypoint
	}
	return strings.Join(lines, "\n")
}
