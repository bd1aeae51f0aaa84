package aijson

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_PlainJSON(t *testing.T) {
	value := Extract(`{"title": "Neon Dusk", "mood": "wistful"}`)

	obj, ok := value.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Neon Dusk", obj["title"])
}

func TestExtract_FencedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"title\": \"Neon Dusk\"}\n```\nEnjoy!"

	value := Extract(raw)

	obj, ok := value.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Neon Dusk", obj["title"])
}

func TestExtract_JSONEmbeddedInProse(t *testing.T) {
	raw := `Sure! The theme is {"title": "Neon Dusk"} as requested.`

	value := Extract(raw)

	obj, ok := value.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Neon Dusk", obj["title"])
}

func TestExtract_Array(t *testing.T) {
	value := Extract("```\n[1, 2, 3]\n```")

	arr, ok := value.([]any)
	assert.True(t, ok)
	assert.Len(t, arr, 3)
}

func TestExtract_UnparseableFallsBack(t *testing.T) {
	value := Extract("this is not json at all")

	assert.True(t, IsFallback(value))

	obj := value.(map[string]any)
	assert.Equal(t, "this is not json at all", obj["raw"])
}

func TestExtract_FallbackIsDeterministic(t *testing.T) {
	first := Extract("nope")
	second := Extract("nope")

	assert.Equal(t, first, second)
}

func TestExtractObject_ArrayFallsBack(t *testing.T) {
	obj := ExtractObject("[1, 2]")

	assert.True(t, IsFallback(obj))
}
