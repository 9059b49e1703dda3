// Package pipeline resolves every storypoint of a storyline into an artifact,
// keeping one result per entry in storyline order.
package pipeline

import (
	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/slide"
	"github.com/teranos/slideinspo/storyline"
)

// Mode selects how artifacts are produced
type Mode string

const (
	// ModeImage resolves a slide and returns its image path
	ModeImage Mode = "image"
	// ModeMarkup generates HTML from the storypoint, skipping resolution
	ModeMarkup Mode = "markup"
)

// ParseMode accepts "image" or "markup"; empty means ModeImage
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeImage:
		return ModeImage, nil
	case ModeMarkup:
		return ModeMarkup, nil
	default:
		return "", errors.NewInvalidRequestError("unknown mode %q (expected %s or %s)", s, ModeImage, ModeMarkup)
	}
}

// Status of one batch item
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Item is the result for one storyline entry
type Item struct {
	Index      int               `json:"index"` // 0-based position in the storyline
	Label      string            `json:"label"`
	Storypoint string            `json:"storypoint"`
	Status     Status            `json:"status"`
	Slide      *slide.ID         `json:"slide,omitempty"`
	Artifact   artifact.Artifact `json:"artifact"`
	Error      string            `json:"error,omitempty"`
}

// Batch holds one item per storyline entry, in storyline order
type Batch struct {
	RunID string `json:"run_id,omitempty"`
	Topic string `json:"topic"`
	Mode  Mode   `json:"mode"`
	Items []Item `json:"items"`
}

// newBatch pre-fills every item as missing so no entry is ever absent
func newBatch(s *storyline.Storyline, mode Mode) *Batch {
	b := &Batch{Mode: mode, Items: make([]Item, s.Len())}
	if s != nil {
		b.Topic = s.Topic
	}
	for i := range b.Items {
		b.Items[i] = Item{
			Index:      i,
			Label:      storyline.Label(i + 1),
			Storypoint: s.Entries[i].Storypoint,
			Status:     StatusNotFound,
			Artifact:   artifact.Missing,
		}
	}
	return b
}

// Len returns the number of items
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

// At returns the item at 0-based index i
func (b *Batch) At(i int) (Item, error) {
	if i < 0 || i >= b.Len() {
		return Item{}, errors.NewInvalidRequestError("index %d out of range [0, %d)", i, b.Len())
	}
	return b.Items[i], nil
}

// Ordinal returns the n-th item counting from 1, as users number slides
func (b *Batch) Ordinal(n int) (Item, error) {
	if n < 1 || n > b.Len() {
		return Item{}, errors.NewInvalidRequestError("slide %d out of range [1, %d]", n, b.Len())
	}
	return b.Items[n-1], nil
}

// Labels returns the item labels in order
func (b *Batch) Labels() []string {
	out := make([]string, b.Len())
	for i := range out {
		out[i] = b.Items[i].Label
	}
	return out
}

// Artifacts returns the artifacts in order, index-aligned with Labels
func (b *Batch) Artifacts() []artifact.Artifact {
	out := make([]artifact.Artifact, b.Len())
	for i := range out {
		out[i] = b.Items[i].Artifact
	}
	return out
}

// Summary counts items by status
type Summary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	NotFound int `json:"not_found"`
	Failed   int `json:"failed"`
}

// Summary counts the items by status
func (b *Batch) Summary() Summary {
	s := Summary{Total: b.Len()}
	for i := 0; i < b.Len(); i++ {
		switch b.Items[i].Status {
		case StatusOK:
			s.OK++
		case StatusFailed:
			s.Failed++
		default:
			s.NotFound++
		}
	}
	return s
}
