package services

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractoros/contractoros-backend/internal/apierr"
)

func TestExtractJSONObjectFencedWithProse(t *testing.T) {
	text := "Sure! ```json\n{\"name\":\"X\",\"description\":\"Y\"}\n``` Hope that helps!"
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "X", obj["name"])
	assert.Equal(t, "Y", obj["description"])
	assert.Len(t, obj, 2)
}

// Two fenced blocks in one reply: the first one wins, and each is parsed on
// its own rather than as a span across both.
func TestExtractJSONObjectMultipleFencedBlocks(t *testing.T) {
	text := "First draft:\n```json\n{\"name\":\"First\"}\n```\nRevised version:\n```json\n{\"name\":\"Second\"}\n```"
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "First", obj["name"])
}

func TestExtractJSONObjectFencedNestedBraces(t *testing.T) {
	text := "```json\n{\"outer\": {\"inner\": \"v\"}}\n```"
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	inner, ok := obj["outer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", inner["inner"])
}

func TestExtractJSONObjectBareBraces(t *testing.T) {
	text := "Here is the result you asked for: {\"name\": \"Riverside Tower\", \"floors\": 12} — let me know."
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "Riverside Tower", obj["name"])
	assert.Equal(t, float64(12), obj["floors"])
}

func TestExtractJSONObjectNestedBraces(t *testing.T) {
	text := `{"outer": {"inner": "v"}, "k": 1}`
	obj, err := ExtractJSONObject(text)
	require.NoError(t, err)
	inner, ok := obj["outer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", inner["inner"])
}

func TestExtractJSONObjectStripsThink(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{
			name: "terminated",
			text: "<think>reasoning about {braces} here</think>{\"name\":\"A\"}",
		},
		{
			name: "case_insensitive",
			text: "<THINK>hmm</THINK>{\"name\":\"A\"}",
		},
		{
			name: "unterminated_blank_line",
			text: "<think>still going\n\n{\"name\":\"A\"}",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj, err := ExtractJSONObject(tc.text)
			require.NoError(t, err)
			assert.Equal(t, "A", obj["name"])
		})
	}
}

func TestExtractJSONObjectUnterminatedThinkToEOF(t *testing.T) {
	_, err := ExtractJSONObject("<think>never closes {\"name\":\"A\"}")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeParseError))
}

func TestExtractJSONObjectNoCandidate(t *testing.T) {
	_, err := ExtractJSONObject("no json anywhere in this reply")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeParseError))
}

func TestExtractJSONObjectInvalidJSON(t *testing.T) {
	_, err := ExtractJSONObject("{not valid json}")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeParseError))
}

// Re-running extraction on its own re-serialized output must yield an
// identical object.
func TestExtractJSONObjectIdempotent(t *testing.T) {
	first, err := ExtractJSONObject("noise before {\"name\":\"X\",\"budget\":12.5,\"tags\":[\"a\",\"b\"]} noise after")
	require.NoError(t, err)

	raw, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := ExtractJSONObject(string(raw))
	require.NoError(t, err)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not idempotent: %v vs %v", first, second)
	}
}

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *float64
	}{
		{"plain_number", float64(42), f64(42)},
		{"currency_string", "$1,200,000", f64(1200000)},
		{"decimal_string", "12.5", f64(12.5)},
		{"negative", "-3", f64(-3)},
		{"garbage", "no digits", nil},
		{"empty", "", nil},
		{"wrong_type", []any{1}, nil},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeNumber(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *string
	}{
		{"valid", "2024-06-01", strPtr("2024-06-01")},
		// Format-only validation: an impossible calendar date that matches
		// the pattern passes through unchanged.
		{"impossible_calendar_date", "2024-13-40", strPtr("2024-13-40")},
		{"placeholder_unknown", "unknown", nil},
		{"placeholder_na", "N/A", nil},
		{"placeholder_tbd", "TBD", nil},
		{"empty", "", nil},
		{"wrong_format", "June 1, 2024", nil},
		{"partial", "2024-06", nil},
		{"not_a_string", float64(20240601), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeDate(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestNormalizeStringList(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"actual_list", []any{" a ", "", "b"}, []string{"a", "b"}},
		{"single_string", "just one", []string{"just one"}},
		{"semicolon_delimited", "a; b ;c", []string{"a", "b", "c"}},
		{"empty_string", "", nil},
		{"empty_list", []any{}, nil},
		{"list_of_empties", []any{"", "  "}, nil},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeStringList(tc.in))
		})
	}
}

func f64(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
