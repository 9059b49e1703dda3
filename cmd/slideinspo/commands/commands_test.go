package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/resolve"
	"github.com/teranos/slideinspo/slide"
	"github.com/teranos/slideinspo/sym"
)

func TestItemResult(t *testing.T) {
	tests := []struct {
		name string
		item pipeline.Item
		want string
	}{
		{
			name: "image",
			item: pipeline.Item{Status: pipeline.StatusOK, Artifact: artifact.Artifact{Kind: artifact.KindImage, Path: "slides_png/deck_012_slide_0034.png"}},
			want: sym.Slide + " slides_png/deck_012_slide_0034.png",
		},
		{
			name: "markup",
			item: pipeline.Item{Status: pipeline.StatusOK, Artifact: artifact.Artifact{Kind: artifact.KindMarkup, Markup: "<div></div>"}},
			want: sym.Markup + " 11 bytes of HTML",
		},
		{
			name: "failed",
			item: pipeline.Item{Status: pipeline.StatusFailed, Artifact: artifact.Missing, Error: "connection refused"},
			want: sym.Missing + " connection refused",
		},
		{
			name: "not found",
			item: pipeline.Item{Status: pipeline.StatusNotFound, Artifact: artifact.Missing},
			want: sym.Missing + " no matching slide",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itemResult(tt.item))
		})
	}
}

func TestResolutionOutput(t *testing.T) {
	images := artifact.ImagePath{BaseDir: "slides_png"}

	t.Run("found", func(t *testing.T) {
		res := resolve.Resolution{Status: resolve.StatusFound, ID: slide.ID{Deck: "012", Number: "0034"}, Raw: "deck_012_slide_0034"}
		out := resolutionOutput(res, images)
		assert.Equal(t, resolve.StatusFound, out.Status)
		assert.Equal(t, "deck_012_slide_0034", out.Slide)
		assert.Equal(t, filepath.Join("slides_png", "deck_012_slide_0034.png"), out.Path)
		assert.Empty(t, out.Error)
	})

	t.Run("not found", func(t *testing.T) {
		res := resolve.Resolution{Status: resolve.StatusNotFound, Raw: "I could not find a relevant slide."}
		out := resolutionOutput(res, images)
		assert.Empty(t, out.Slide)
		assert.Empty(t, out.Path)
		assert.Equal(t, "I could not find a relevant slide.", out.Answer)
	})

	t.Run("failed", func(t *testing.T) {
		res := resolve.Resolution{Status: resolve.StatusFailed, Err: errors.New("timeout")}
		out := resolutionOutput(res, images)
		assert.Equal(t, "timeout", out.Error)
	})
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", shortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestAppEmitter(t *testing.T) {
	assert.IsType(t, &pipeline.JSONEmitter{}, (&app{json: true}).emitter())
	assert.IsType(t, &pipeline.CLIEmitter{}, (&app{}).emitter())
}
