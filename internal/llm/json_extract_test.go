package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_MarkdownJsonBlock(t *testing.T) {
	response := `Here's my read on it:

` + "```json" + `
{
  "verdict": "conflicting",
  "reason": "the personas disagree on sequencing"
}
` + "```" + `

Let me know if you need more detail.`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Contains(t, result, `"verdict"`)
	assert.Contains(t, result, "conflicting")
}

func TestExtractJSON_MarkdownNoLang(t *testing.T) {
	response := "```\n{\"key\": \"value\", \"number\": 42}\n```"

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"key": "value", "number": 42}`, result)
}

func TestExtractJSON_RawJSONObject(t *testing.T) {
	response := `{"summary": "test", "status": "complete"}`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, result)
}

func TestExtractJSON_RawJSONArray(t *testing.T) {
	response := `[{"persona_id": "a"}, {"persona_id": "b"}]`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, result)
}

func TestExtractJSON_SkipOtherLanguageBlocks(t *testing.T) {
	response := "```python\nprint('hello')\n```\n\n```json\n{\"result\": true}\n```"

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"result": true}`, result)
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	response := `Sure! The relevant personas are {"persona_ids": ["one", "two"]} as requested.`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"persona_ids": ["one", "two"]}`, result)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	response := `{"outer": {"inner": {"deep": "value"}}, "array": [1, 2, {"nested": true}]}`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, result)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	response := `{"text": "use {placeholders} carefully"}`

	result, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, result)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not come to a conclusion, sorry.")
	require.Error(t, err)
	assert.True(t, IsMalformedOutput(err))
}

func TestExtractJSONAs_Struct(t *testing.T) {
	type routing struct {
		PersonaIDs []string `json:"persona_ids"`
	}

	response := "```json\n{\"persona_ids\": [\"abc\", \"def\"]}\n```"

	result, err := ExtractJSONAs[routing](response)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def"}, result.PersonaIDs)
}

func TestExtractJSONAs_TypeMismatch(t *testing.T) {
	type routing struct {
		PersonaIDs []string `json:"persona_ids"`
	}

	_, err := ExtractJSONAs[routing](`{"persona_ids": "not-an-array"}`)
	require.Error(t, err)
	assert.True(t, IsMalformedOutput(err))
}
