package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)```")
)

// extractJSON pulls a JSON document out of an oracle reply: a ```json fence
// first, then any fence, then the outermost balanced {...}.
func extractJSON(text string) (interface{}, error) {
	candidate := strings.TrimSpace(text)
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if obj, ok := balancedObject(text); ok {
		candidate = obj
	}

	if candidate == "" {
		return nil, fmt.Errorf("invalid JSON: empty response")
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	return doc, nil
}

// balancedObject returns the first complete top-level {...} span, ignoring
// braces inside string literals.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
