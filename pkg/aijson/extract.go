// Package aijson recovers structured data from loosely formatted model output.
//
// Generative backends asked for JSON frequently wrap it in markdown fences or
// prose. Rather than failing the whole request, parse failures fall back to a
// deterministic, clearly labeled payload so callers always receive something
// renderable.
package aijson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
)

// FallbackKey marks payloads synthesized by Extract after a parse failure.
const FallbackKey = "_fallback"

// Extract parses model output into a JSON value, tolerating markdown fences
// and surrounding prose. It never returns an error: when nothing parseable is
// found it returns Fallback(raw).
func Extract(raw string) any {
	candidates := candidates(raw)

	for _, candidate := range candidates {
		var value any
		if err := json.Unmarshal([]byte(candidate), &value); err == nil {
			return value
		}
	}

	return Fallback(raw)
}

// ExtractObject is Extract constrained to JSON objects.
func ExtractObject(raw string) map[string]any {
	value := Extract(raw)

	if obj, ok := value.(map[string]any); ok {
		return obj
	}

	return Fallback(raw)
}

// Fallback builds the deterministic payload substituted for unparseable output.
func Fallback(raw string) map[string]any {
	return map[string]any{
		FallbackKey: true,
		"raw":       strings.TrimSpace(raw),
	}
}

// IsFallback reports whether a value came from Fallback.
func IsFallback(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}

	flagged, ok := obj[FallbackKey].(bool)

	return ok && flagged
}

func candidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	out := []string{trimmed}

	if m := fenceRe.FindStringSubmatch(trimmed); len(m) == 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	if m := objectRe.FindString(trimmed); m != "" {
		out = append(out, m)
	}

	if m := arrayRe.FindString(trimmed); m != "" {
		out = append(out, m)
	}

	return out
}
