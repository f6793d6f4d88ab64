// Package searchquery turns a free-form search string into an ordered
// sequence of filter elements. Each element is either a key:value pair,
// translated by the engines into an exact-match predicate on the mapped
// field, or a bare term, translated into a free-text predicate across the
// whole document.
//
// Parsing is never fatal: malformed fragments are logged and dropped, and
// the scan is bounded so pathological input terminates with a truncated
// result instead of hanging.
package searchquery

import (
	"strings"

	"github.com/eveview/eveview/internal/eveview/logger"
)

// Element is one parsed filter element. Key is empty for bare free-text
// terms.
type Element struct {
	Key   string
	Value string
}

// IsKeyVal reports whether the element is a key:value pair.
func (e Element) IsKeyVal() bool {
	return e.Key != ""
}

// Bound on the number of elements consumed from one input. Guards against
// a remainder-consuming defect turning into an infinite loop.
const maxIterations = 128

// Parse splits the input into filter elements. Whitespace separates
// tokens, double quotes group values containing whitespace, and the first
// unquoted colon splits a token into key and value.
func Parse(input string) []Element {
	var elements []Element
	rem := input
	for i := 0; ; i++ {
		if i >= maxIterations {
			logger.L().Errorw("Aborting query string parsing, too many iterations",
				"remainder", rem)
			break
		}
		var element *Element
		element, rem = next(rem)
		if element == nil {
			break
		}
		if !element.IsKeyVal() && element.Value == "" {
			continue
		}
		elements = append(elements, *element)
	}
	return elements
}

// next consumes one token from the front of the input and returns the
// parsed element plus the unconsumed remainder. A nil element means the
// input is exhausted or the rest was dropped as malformed.
func next(input string) (*Element, string) {
	input = strings.TrimLeft(input, " \t")
	if input == "" {
		return nil, ""
	}

	var buf strings.Builder
	inQuote := false
	colon := -1
	i := 0
scan:
	for ; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case !inQuote && (c == ' ' || c == '\t'):
			break scan
		case c == ':' && !inQuote && colon < 0:
			colon = buf.Len()
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	rem := input[i:]

	if inQuote {
		logger.L().Warnw("Dropping unterminated quoted fragment from query string",
			"fragment", input)
		return nil, ""
	}

	token := buf.String()
	if colon > 0 {
		return &Element{Key: token[:colon], Value: token[colon+1:]}, rem
	}
	// A leading colon makes no sense as a key; keep it as free text.
	return &Element{Value: token}, rem
}
