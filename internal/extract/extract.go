// Package extract recovers a structured {summary, quip} object from raw
// generative-model output. Model text is unreliable: it may wrap the JSON
// in code fences, surround it with prose, use curly typographic quotes,
// leave field names unquoted, or dangle trailing commas. Extraction walks
// a fixed ladder of recovery strategies and takes the first one that
// yields a parseable object; when none does, it returns an empty result
// rather than an error.
package extract

import (
	"encoding/json"
	"strings"
)

// Method identifies which recovery strategy produced a result.
type Method string

const (
	MethodDirect         Method = "direct"
	MethodSliced         Method = "sliced"
	MethodRepaired       Method = "repaired"
	MethodRepairedSliced Method = "repaired_sliced"
	MethodNone           Method = "none"
)

// Result is the structured object recovered from model output. Summary
// and Quip default to the empty string when absent or not usable as
// strings. Method is diagnostic metadata for logging and metering; it
// carries no request semantics.
type Result struct {
	Summary string
	Quip    string
	Method  Method
}

// Empty reports whether no field was recovered.
func (r Result) Empty() bool {
	return r.Summary == "" && r.Quip == ""
}

// Extract parses raw model output into a Result. It is a pure function:
// it never panics, never returns an error, and touches no state outside
// the call. Total failure yields a zero Result with MethodNone.
func Extract(raw string) Result {
	stripped := stripFences(raw)

	// 1. Direct parse of the fence-stripped text.
	if obj, ok := parseObject(stripped); ok {
		return project(obj, MethodDirect)
	}

	// 2. Slice from the first '{' to the last '}' and retry. This peels
	// off prose before and after a single embedded object.
	if sliced, ok := braceSlice(stripped); ok {
		if obj, ok := parseObject(sliced); ok {
			return project(obj, MethodSliced)
		}
	}

	// 3. Textual repair (curly quotes, bare field names, trailing
	// commas), then retry both parses on the repaired text.
	repaired := repair(stripped)
	if obj, ok := parseObject(repaired); ok {
		return project(obj, MethodRepaired)
	}
	if sliced, ok := braceSlice(repaired); ok {
		if obj, ok := parseObject(sliced); ok {
			return project(obj, MethodRepairedSliced)
		}
	}

	// 4. Give up: empty mapping, never an error.
	return Result{Method: MethodNone}
}

// stripFences removes a leading markdown code-fence marker (optionally
// tagged as JSON) and a trailing fence, then trims whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseObject attempts to parse s as a JSON object.
func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// braceSlice returns the substring from the first opening brace to the
// last closing brace, inclusive. It reports false when either brace is
// missing or the opening brace does not precede the closing one.
func braceSlice(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	return s[start : end+1], true
}

// project maps a parsed object onto a Result. Only string-valued fields
// are used; anything else coerces to the empty string.
func project(obj map[string]any, method Method) Result {
	result := Result{Method: method}
	if v, ok := obj["summary"].(string); ok {
		result.Summary = v
	}
	if v, ok := obj["quip"].(string); ok {
		result.Quip = v
	}
	return result
}
