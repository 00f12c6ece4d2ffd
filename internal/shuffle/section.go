package shuffle

import "strings"

// span marks one delimiter-bounded section inside a template. The full match
// including markers is text[start:end]; the content between the markers is
// text[open:close].
type span struct {
	start int
	open  int
	close int
	end   int
}

// findSections scans text left to right for non-overlapping marker pairs,
// shortest match first: each start marker is paired with the next end marker
// after it. Content may span newlines. Sections do not nest — scanning
// resumes after the end marker of the previous match. A start marker with no
// following end marker produces no match; everything past it passes through
// untouched.
func findSections(text, startMarker, endMarker string) []span {
	var spans []span
	pos := 0
	for {
		i := strings.Index(text[pos:], startMarker)
		if i < 0 {
			break
		}
		open := pos + i + len(startMarker)
		j := strings.Index(text[open:], endMarker)
		if j < 0 {
			break
		}
		close := open + j
		spans = append(spans, span{
			start: pos + i,
			open:  open,
			close: close,
			end:   close + len(endMarker),
		})
		pos = close + len(endMarker)
	}
	return spans
}
