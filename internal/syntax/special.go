// Package syntax extracts and restores A1111 extra-network tags — LoRA,
// hypernetwork, and LyCORIS references such as <lora:detail:0.8> — so that
// template rewriting can never reorder or split them.
package syntax

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultPrefixes are the extra-network kinds recognized out of the box.
var defaultPrefixes = []string{"lora", "lyco", "hypernet"}

// Extractor strips protected tags from a string and re-appends them after
// processing. Stripping is idempotent: running Strip on its own output finds
// nothing further.
type Extractor struct {
	re *regexp.Regexp
}

// NewExtractor builds an Extractor for the given tag prefixes. With no
// arguments it recognizes lora, lyco, and hypernet tags.
func NewExtractor(prefixes ...string) *Extractor {
	if len(prefixes) == 0 {
		prefixes = defaultPrefixes
	}
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	// Surrounding whitespace is folded into the match so removal leaves a
	// single space, not a double gap.
	pattern := fmt.Sprintf(`\s*(<(?:%s):[^>]+>)\s*`, strings.Join(quoted, "|"))
	return &Extractor{re: regexp.MustCompile(pattern)}
}

// Strip removes every protected tag from text and returns the stripped text
// plus the tags in extraction order. Text without tags comes back unchanged.
func (e *Extractor) Strip(text string) (string, []string) {
	matches := e.re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, m[1])
	}

	stripped := strings.TrimSpace(e.re.ReplaceAllString(text, " "))
	return stripped, chunks
}

// Append re-attaches chunks to text, space separated, in their original
// extraction order. With no chunks, text is returned as is.
func (e *Extractor) Append(text string, chunks []string) string {
	if len(chunks) == 0 {
		return text
	}
	parts := make([]string, 0, len(chunks)+1)
	if text != "" {
		parts = append(parts, text)
	}
	parts = append(parts, chunks...)
	return strings.Join(parts, " ")
}
