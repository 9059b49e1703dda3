// Package sym defines the glyphs slideinspo prints in CLI output, log fields
// and progress events. They are stable across CLI, HTTP and documentation.
package sym

// Pipeline stage glyphs
const (
	Storyline = "⚡" // a storypoint line in a rendered storyline
	Graph     = "⋈" // graph context loading and matching
	Slide     = "▣" // a resolved slide artifact
	Markup    = "✎" // a generated HTML mock
	Missing   = "∅" // no artifact could be produced
)

// System glyphs
const (
	AM     = "≡" // configuration
	DB     = "⊔" // database
	Server = "⌁" // HTTP surface
)

// StageSymbol returns the glyph for a pipeline stage name, or "" for unknown stages.
func StageSymbol(stage string) string {
	switch stage {
	case "storyline":
		return Storyline
	case "graph", "context":
		return Graph
	case "resolve", "slide":
		return Slide
	case "markup":
		return Markup
	default:
		return ""
	}
}
