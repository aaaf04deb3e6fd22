package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoRegion = errors.New("no balanced JSON region found")

// ParseError means no JSON value of the wanted shape could be pulled out of a
// model reply. Raw is kept for diagnostics only.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON from response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Decode pulls a T out of free text. The whole text is tried first as strict
// JSON; failing that, every balanced region opening with open ('[' or '{') is
// tried left to right and the first that decodes into T wins.
func Decode[T any](text string, open byte) (T, error) {
	var zero T

	var whole T
	firstErr := json.Unmarshal([]byte(strings.TrimSpace(text)), &whole)
	if firstErr == nil {
		return whole, nil
	}

	lastErr := errNoRegion
	for start := strings.IndexByte(text, open); start >= 0; {
		if end, ok := balancedEnd(text, start); ok {
			var v T
			err := json.Unmarshal([]byte(text[start:end+1]), &v)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}

		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}

	if errors.Is(lastErr, errNoRegion) {
		lastErr = fmt.Errorf("%w (whole text: %v)", errNoRegion, firstErr)
	}
	return zero, &ParseError{Raw: text, Cause: lastErr}
}

// balancedEnd finds the index closing the bracket or brace at start, skipping
// over JSON strings.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i, true
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}
