// Package artifact turns a resolved slide into something displayable: the path
// of its pre-rendered image, or generated HTML markup.
package artifact

import (
	"context"

	"github.com/teranos/slideinspo/slide"
)

// Kind of artifact
type Kind string

const (
	KindImage   Kind = "image"
	KindMarkup  Kind = "markup"
	KindMissing Kind = "missing" // nothing to show for this entry
)

// Artifact is a displayable result for one storyline entry
type Artifact struct {
	Kind   Kind   `json:"kind"`
	Path   string `json:"path,omitempty"`
	Markup string `json:"markup,omitempty"`
}

// Missing is the sentinel artifact for entries without a result
var Missing = Artifact{Kind: KindMissing}

// IsMissing reports whether a is the missing sentinel
func (a Artifact) IsMissing() bool {
	return a.Kind == KindMissing || a.Kind == ""
}

// Request is the input shared by all producers. ImagePath needs ID; Markup
// works from Storypoint alone.
type Request struct {
	Storypoint string
	ID         *slide.ID
}

// Producer turns a request into an artifact
type Producer interface {
	Produce(ctx context.Context, req Request) (Artifact, error)
}
