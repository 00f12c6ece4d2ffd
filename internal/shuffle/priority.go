package shuffle

import (
	"sort"
	"strconv"
	"unicode/utf8"
)

// Group holds the tokens that share one explicit priority key. Lower keys are
// emitted earlier in the rewritten section.
type Group struct {
	Key    int
	Tokens []string
}

// Partition separates tokens into priority groups and an unprioritized
// remainder. A token is prioritized when it begins with marker immediately
// followed by one or more decimal digits; the digit run forms the key and is
// stripped, along with the marker, from the token. Everything else — including
// a marker not followed by a digit — lands in the remainder, which is always
// emitted after every prioritized group.
//
// Groups are returned in ascending key order. Order within a group and within
// the remainder preserves input order; shuffling is the caller's business.
func Partition(tokens []string, marker rune) ([]Group, []string) {
	byKey := make(map[int][]string)
	var rest []string

	for _, tok := range tokens {
		key, member, ok := parsePriority(tok, marker)
		if !ok {
			rest = append(rest, tok)
			continue
		}
		byKey[key] = append(byKey[key], member)
	}

	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, Tokens: byKey[k]})
	}
	return groups, rest
}

// parsePriority applies the strict prefix grammar: marker, then one or more
// digits, then the member content. No trimming happens here beyond what
// tokenization already did.
func parsePriority(tok string, marker rune) (int, string, bool) {
	first, size := utf8.DecodeRuneInString(tok)
	if first != marker {
		return 0, "", false
	}

	i := size
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == size {
		// Marker with no digits is not a priority prefix.
		return 0, "", false
	}

	key, err := strconv.Atoi(tok[size:i])
	if err != nil {
		// Digit run too long to represent; treat as unprioritized.
		return 0, "", false
	}
	return key, tok[i:], true
}
