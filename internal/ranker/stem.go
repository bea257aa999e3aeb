package ranker

import "strings"

// suffixes are tried in order and the first match is stripped; a suffix
// comes before the shorter suffixes it ends with ("ies" before "es" and
// "s", "ied" before "ed"), so "studies" loses "ies" rather than only "s".
// stem replaces "ies"/"ied" with "i" and a consonant+"y" ending with
// "i", so "studies", "studied" and "study" all stem to "studi".
var suffixes = []string{"ational", "ization", "ational", "ing", "edly", "ies", "ied", "ed", "es", "s"}

// stem is a deliberately small suffix-stripping stemmer; it is not Porter's
// algorithm, only the minimal reduction needed for token overlap to match
// "study"/"studies"/"studied" style variants.
func stem(word string) string {
	w := strings.ToLower(word)
	if len(w) <= 3 {
		return w
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(w, suf) && len(w)-len(suf) >= 3 {
			if suf == "ies" || suf == "ied" {
				return w[:len(w)-len(suf)] + "i"
			}
			return w[:len(w)-len(suf)]
		}
	}
	if strings.HasSuffix(w, "y") && !strings.ContainsRune("aeiouy", rune(w[len(w)-2])) {
		return w[:len(w)-1] + "i"
	}
	return w
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"and": true, "or": true, "for": true, "to": true, "with": true, "is": true,
	"are": true, "by": true, "at": true, "as": true, "vs": true, "versus": true,
}

// tokenize lowercases, strips punctuation-adjacent boundaries, drops
// stopwords, and stems what remains.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || stopwords[f] {
			continue
		}
		out = append(out, stem(f))
	}
	return out
}
