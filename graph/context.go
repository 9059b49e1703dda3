// Package graph loads the slide/storypoint pairs that slide matching runs against.
package graph

import (
	"encoding/json"
	"strings"
)

// Pair links a slide to one of its storypoints
type Pair struct {
	SlideName      string `json:"slide_name"`
	StorypointName string `json:"storypoint_name"`
}

// Context is the immutable set of pairs loaded from the graph, in query order
type Context struct {
	pairs []Pair
}

// NewContext copies pairs into a Context
func NewContext(pairs []Pair) Context {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Context{pairs: cp}
}

// Len returns the number of pairs
func (c Context) Len() int {
	return len(c.pairs)
}

// Pairs returns a copy of the pairs
func (c Context) Pairs() []Pair {
	cp := make([]Pair, len(c.pairs))
	copy(cp, c.pairs)
	return cp
}

// Slides returns the distinct slide names in first-seen order
func (c Context) Slides() []string {
	seen := make(map[string]bool, len(c.pairs))
	var names []string
	for _, p := range c.pairs {
		if !seen[p.SlideName] {
			seen[p.SlideName] = true
			names = append(names, p.SlideName)
		}
	}
	return names
}

// Render lists one "SlideName: StorypointName" line per pair
func (c Context) Render() string {
	var b strings.Builder
	for i, p := range c.pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.SlideName)
		b.WriteString(": ")
		b.WriteString(p.StorypointName)
	}
	return b.String()
}

// MarshalJSON encodes the pairs as an array
func (c Context) MarshalJSON() ([]byte, error) {
	if c.pairs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.pairs)
}
