// Package llmjson recovers JSON objects from model output. Models asked for
// JSON frequently wrap it in prose or a fenced code block, and reasoning-class
// models cannot be forced into JSON mode at all, so plain json.Unmarshal is not
// enough.
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/simcoach/simcoach/internal/errors"
)

// ErrNoJSON is returned when none of the recovery strategies finds a parseable object.
var ErrNoJSON = errors.NewSentinel("no JSON object found in model output")

// strategies are tried in order; the first one that yields a candidate that
// unmarshals wins.
var strategies = []func(string) (string, bool){
	direct,
	fencedBlock,
	braceSpan,
}

// Unmarshal parses a JSON object out of raw model output into v. It tries a
// direct parse, then the contents of a fenced code block, then the first
// balanced {...} span.
func Unmarshal(raw string, v any) error {
	for _, strategy := range strategies {
		candidate, ok := strategy(raw)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err != nil {
			continue
		}
		return nil
	}
	return ErrNoJSON
}

func direct(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	// Skip an optional language tag such as "json" on the fence line.
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		fenceLine := strings.TrimSpace(rest[:newline])
		if len(fenceLine) <= len("javascript") && !strings.ContainsAny(fenceLine, "{}") {
			rest = rest[newline+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func braceSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// PartialStringField extracts the still-accumulating value of a string field
// from a JSON object that is being streamed, e.g. `{"analysis": "The custo`.
// It returns the decoded prefix and whether the field has started.
func PartialStringField(raw, field string) (string, bool) {
	marker := `"` + field + `"`
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", false
	}
	rest := raw[idx+len(marker):]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", false
	}
	rest = strings.TrimLeft(rest[colon+1:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '"' {
		return "", false
	}
	var b strings.Builder
	escaped := false
	for i := 1; i < len(rest); i++ {
		c := rest[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\', '/':
				b.WriteByte(c)
			default:
				// Leave unsupported escapes out of the live display; the final
				// parse handles them properly.
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			return b.String(), true
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), true
}
