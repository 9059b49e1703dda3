package slide

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/slideinspo/errors"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"bare answer", "deck_001_slide_0003", "deck_001_slide_0003", true},
		{"embedded in prose", "The slide you want is deck_003_slide_0021, good luck.", "deck_003_slide_0021", true},
		{"first of several wins", "deck_002_slide_0010 or maybe deck_004_slide_0001", "deck_002_slide_0010", true},
		{"no identifier", "I could not find a match.", "", false},
		{"empty answer", "", "", false},
		{"too few deck digits", "deck_01_slide_0003", "", false},
		{"too few slide digits", "deck_001_slide_003", "", false},
		{"extra slide digits truncate", "deck_001_slide_00035", "deck_001_slide_0003", true},
		{"quoted", `"deck_010_slide_0100"`, "deck_010_slide_0100", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := Extract(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, id.String())
			} else {
				assert.True(t, id.IsZero())
			}
		})
	}
}

func TestExtract_PreservesPadding(t *testing.T) {
	id, ok := Extract("deck_003_slide_0021")
	require.True(t, ok)
	assert.Equal(t, ID{Deck: "003", Number: "0021"}, id)
	assert.Equal(t, "deck_003_slide_0021.png", id.FileName())
}

func TestExtractAll(t *testing.T) {
	ids := ExtractAll("deck_001_slide_0001, deck_002_slide_0002 and deck_003_slide_0003")
	require.Len(t, ids, 3)
	assert.Equal(t, "deck_002_slide_0002", ids[1].String())
	assert.Empty(t, ExtractAll("nothing here"))
}

func TestParse(t *testing.T) {
	id, err := Parse("deck_123_slide_4567")
	require.NoError(t, err)
	assert.Equal(t, ID{Deck: "123", Number: "4567"}, id)

	for _, bad := range []string{"", "deck_123_slide_4567.png", " deck_123_slide_4567", "answer: deck_123_slide_4567"} {
		_, err := Parse(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.IsInvalidRequest(err))
	}
}

func TestParseFileName(t *testing.T) {
	id, err := ParseFileName("deck_003_slide_0021.png")
	require.NoError(t, err)
	assert.Equal(t, "deck_003_slide_0021", id.String())

	_, err = ParseFileName("../etc/passwd")
	assert.Error(t, err)
	_, err = ParseFileName(".png")
	assert.Error(t, err)
}

func TestID_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Slide ID `json:"slide"`
	}{ID{Deck: "007", Number: "0042"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"slide":"deck_007_slide_0042"}`, string(data))

	var out struct {
		Slide ID `json:"slide"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "0042", out.Slide.Number)
}
