package normalize

import (
	"strings"
	"unicode"
)

// Title casefolds, strips punctuation, and collapses whitespace, for use
// only as the last-resort dedup key (title + first-author + year).
func Title(raw string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = true
		default:
			// punctuation: treat as a word boundary without emitting a char
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// AuthorLastName extracts a normalized last-name key from a display name
// such as "Jane A. Doe" or "Doe, Jane" for dedup/merge author matching.
func AuthorLastName(displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return ""
	}
	if idx := strings.Index(name, ","); idx >= 0 {
		return Title(name[:idx])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return Title(fields[len(fields)-1])
}

// AuthorKey builds the "last-name + first-initial" union key used when
// merging author lists (component design §4.3 rule 2).
func AuthorKey(displayName string) string {
	last := AuthorLastName(displayName)
	fields := strings.Fields(strings.ReplaceAll(displayName, ",", " "))
	initial := ""
	for _, f := range fields {
		folded := Title(f)
		if folded != "" && folded != last {
			initial = string([]rune(folded)[0])
			break
		}
	}
	return last + "|" + initial
}
