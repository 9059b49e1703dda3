// Package slide identifies pre-rendered slides by deck and slide number.
package slide

import (
	"regexp"

	"github.com/teranos/slideinspo/errors"
)

// pattern matches identifiers anywhere in free text
var pattern = regexp.MustCompile(`deck_(\d{3})_slide_(\d{4})`)

// exact matches a whole identifier
var exact = regexp.MustCompile(`^deck_(\d{3})_slide_(\d{4})$`)

// ImageExt is the extension of pre-rendered slide images
const ImageExt = ".png"

// ID identifies a slide. Deck and Number keep their zero padding exactly as
// matched: three and four digits.
type ID struct {
	Deck   string
	Number string
}

// String renders the canonical form deck_XXX_slide_XXXX
func (id ID) String() string {
	return "deck_" + id.Deck + "_slide_" + id.Number
}

// FileName is the image file name for the slide
func (id ID) FileName() string {
	return id.String() + ImageExt
}

// IsZero reports an unset ID
func (id ID) IsZero() bool {
	return id.Deck == "" && id.Number == ""
}

// MarshalText encodes the canonical form
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the canonical form
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Extract returns the first identifier found in text. Later matches are ignored.
func Extract(text string) (ID, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return ID{}, false
	}
	return ID{Deck: m[1], Number: m[2]}, true
}

// ExtractAll returns every identifier in text, in order of appearance
func ExtractAll(text string) []ID {
	matches := pattern.FindAllStringSubmatch(text, -1)
	ids := make([]ID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, ID{Deck: m[1], Number: m[2]})
	}
	return ids
}

// Parse accepts exactly one identifier and nothing else
func Parse(s string) (ID, error) {
	m := exact.FindStringSubmatch(s)
	if m == nil {
		return ID{}, errors.NewInvalidRequestError("%q is not a slide identifier (want deck_000_slide_0000)", s)
	}
	return ID{Deck: m[1], Number: m[2]}, nil
}

// ParseFileName accepts an image file name such as deck_003_slide_0021.png
func ParseFileName(name string) (ID, error) {
	if len(name) <= len(ImageExt) || name[len(name)-len(ImageExt):] != ImageExt {
		return ID{}, errors.NewInvalidRequestError("%q is not a slide image", name)
	}
	return Parse(name[:len(name)-len(ImageExt)])
}
