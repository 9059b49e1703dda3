package storyline

import (
	"encoding/json"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
)

var labelPattern = regexp.MustCompile(`^Slide ([1-9][0-9]*)$`)

// Parse reads a model answer as a flat JSON object of exactly count string
// values keyed "Slide 1".."Slide N". Keys may arrive in any order; entries are
// returned sorted by slide number. Failures wrap errors.ErrMalformedStoryline.
func Parse(topic, content string, count int) (*Storyline, error) {
	content = ai.StripCodeFences(content)
	if content == "" {
		return nil, errors.NewMalformedStoryline("empty response")
	}

	entries, err := decodeOrderedObject(content)
	if err != nil {
		return nil, err
	}

	if len(entries) != count {
		return nil, errors.NewMalformedStoryline("expected %d slides, got %d", count, len(entries))
	}

	numbers := make(map[int]bool, len(entries))
	keyed := make([]struct {
		n int
		e Entry
	}, len(entries))
	for i, e := range entries {
		m := labelPattern.FindStringSubmatch(e.Label)
		if m == nil {
			return nil, errors.NewMalformedStoryline("unexpected key %q (want %q..%q)", e.Label, Label(1), Label(count))
		}
		n, _ := strconv.Atoi(m[1])
		if n > count {
			return nil, errors.NewMalformedStoryline("key %q exceeds slide count %d", e.Label, count)
		}
		if numbers[n] {
			return nil, errors.NewMalformedStoryline("duplicate key %q", e.Label)
		}
		numbers[n] = true
		if strings.TrimSpace(e.Storypoint) == "" {
			return nil, errors.NewMalformedStoryline("empty storypoint for %q", e.Label)
		}
		keyed[i].n = n
		keyed[i].e = e
	}

	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].n < keyed[j].n })
	out := &Storyline{Topic: topic, Entries: make([]Entry, len(keyed))}
	for i, k := range keyed {
		out.Entries[i] = k.e
	}
	return out, nil
}

// decodeOrderedObject walks the token stream so key order survives
func decodeOrderedObject(content string) ([]Entry, error) {
	dec := json.NewDecoder(strings.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid JSON"), errors.ErrMalformedStoryline)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.NewMalformedStoryline("expected a JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "invalid JSON"), errors.ErrMalformedStoryline)
		}
		key := keyTok.(string) // object keys are always strings

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "invalid value for %q", key), errors.ErrMalformedStoryline)
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, errors.NewMalformedStoryline("value for %q is not a string: %s", key, string(raw))
		}
		entries = append(entries, Entry{Label: key, Storypoint: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid JSON"), errors.ErrMalformedStoryline)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewMalformedStoryline("trailing data after JSON object")
	}
	return entries, nil
}
