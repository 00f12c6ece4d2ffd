package shuffle

import "strings"

// SplitRespectingParens splits text on sep while treating parenthesized
// regions as atomic units, so a separator nested inside parentheses (to any
// depth) never produces a split. Segments are trimmed of surrounding
// whitespace and empty segments are dropped.
//
// Examples:
//
//	"a, b, c"            -> ["a", "b", "c"]
//	"a, (b, c), d"       -> ["a", "(b, c)", "d"]
//	"a, ((b, c):1.5), d" -> ["a", "((b, c):1.5)", "d"]
//
// Unbalanced parentheses are tolerated: the depth counter may go negative,
// and splitting still happens only when the running depth is exactly zero.
func SplitRespectingParens(text string, sep rune) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	flush := func() {
		part := strings.TrimSpace(current.String())
		if part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case r == sep && depth == 0:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return parts
}
