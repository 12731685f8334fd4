package outline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is returned when no well-formed JSON object can be recovered from
// model output.
var ErrParse = errors.New("could not parse JSON from model response")

// Parse extracts a single JSON value from free-form model output.
//
// The whole text is tried first. If that fails, the first balanced {...} block is
// cut out, trailing commas before a closing brace or bracket are removed, and the
// block is parsed again. There is no partial recovery: either one well-formed
// value comes back or ErrParse.
func Parse(raw string) (Value, error) {
	v, err := decodeStrict(raw)
	if err == nil {
		return v, nil
	}

	block, ok := firstBalancedObject(raw)
	if !ok {
		return Value{}, fmt.Errorf("%w: no balanced object in %d bytes", ErrParse, len(raw))
	}

	v, err = decodeStrict(stripTrailingCommas(block))
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return v, nil
}

// firstBalancedObject returns the text from the first '{' to its matching '}'.
// Braces inside string literals do not count towards nesting.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripTrailingCommas drops any comma that is followed only by whitespace and then
// '}' or ']'. Commas inside string literals are left alone.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
		case ',':
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
