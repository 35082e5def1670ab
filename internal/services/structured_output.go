package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/contractoros/contractoros-backend/internal/apierr"
)

// Model output is an untrusted string: reasoning tags, code fences and stray
// prose all show up in practice. ExtractJSONObject digs the first JSON
// object out of it; the normalize helpers below coerce individual fields
// after parsing.

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// Unterminated variant: an open tag swallowed up to the first blank
	// line, or to end-of-text when no blank line follows.
	thinkOpenRe = regexp.MustCompile(`(?is)<think>.*?(?:\n[ \t]*\n|\z)`)

	// Lazy capture so a reply with multiple fenced blocks yields the first
	// one instead of a span from the first { to the last }.
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// StripThink removes <think> reasoning blocks from model output.
func StripThink(text string) string {
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = thinkOpenRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ExtractJSONObject locates and parses a JSON object inside possibly noisy
// model text. Preference order: fenced code block, then a greedy
// first-{ to last-} span.
func ExtractJSONObject(text string) (map[string]any, error) {
	cleaned := StripThink(text)

	var candidate string
	if m := fencedJSONRe.FindStringSubmatch(cleaned); m != nil {
		candidate = m[1]
	} else {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start >= 0 && end > start {
			candidate = cleaned[start : end+1]
		}
	}
	if candidate == "" {
		return nil, apierr.ParseError("no JSON object found in model output")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, apierr.ParseError("model output is not valid JSON: %v", err)
	}
	return obj, nil
}

// normalizeNumber accepts numbers or strings with non-numeric characters
// stripped ("$1,200,000" -> 1200000). Unparseable input yields nil.
func normalizeNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		var b strings.Builder
		for _, r := range t {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		s := b.String()
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// normalizeDate accepts only strict YYYY-MM-DD strings. Placeholders map to
// nil and any other shape is rejected to nil, never an error. Validation is
// format-only: "2024-13-40" matches the pattern and passes through as-is.
func normalizeDate(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "unknown", "n/a", "na", "tbd", "none", "null":
		return nil
	}
	if !dateRe.MatchString(s) {
		return nil
	}
	return &s
}

// normalizeStringList accepts an actual list, a bare string, or a
// semicolon-delimited string. Entries are trimmed and empties dropped; an
// empty result normalizes to nil, not an empty list.
func normalizeStringList(v any) []string {
	var items []string
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					items = append(items, s)
				}
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	case string:
		parts := []string{t}
		if strings.Contains(t, ";") {
			parts = strings.Split(t, ";")
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringPtrField(obj map[string]any, key string) *string {
	if s := stringField(obj, key); s != "" {
		return &s
	}
	return nil
}
