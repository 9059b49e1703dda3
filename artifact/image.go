package artifact

import (
	"context"
	"path/filepath"

	"github.com/teranos/slideinspo/slide"
)

// ImagePath maps a slide identifier to its pre-rendered image under BaseDir.
// The file is not checked for existence.
type ImagePath struct {
	BaseDir string
}

// Path returns join(BaseDir, "deck_XXX_slide_XXXX.png")
func (p ImagePath) Path(id slide.ID) string {
	return filepath.Join(p.BaseDir, id.FileName())
}

// Produce returns Missing for a request without an identifier
func (p ImagePath) Produce(_ context.Context, req Request) (Artifact, error) {
	if req.ID == nil || req.ID.IsZero() {
		return Missing, nil
	}
	return Artifact{Kind: KindImage, Path: p.Path(*req.ID)}, nil
}
