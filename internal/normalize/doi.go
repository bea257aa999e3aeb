// Package normalize holds the small identifier/date/title canonicalization
// helpers shared by every source adapter and the deduplicator, matching the
// tie-break policies in the component design: DOI normalization, partial-date
// parsing, and title matching for last-resort dedup.
package normalize

import "strings"

// DOI lowercases the DOI and strips a leading "doi:" and any URL prefix
// (e.g. "https://doi.org/", "http://dx.doi.org/").
func DOI(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, prefix := range []string{
		"https://doi.org/",
		"http://doi.org/",
		"https://dx.doi.org/",
		"http://dx.doi.org/",
		"doi:",
	} {
		if strings.HasPrefix(lower, prefix) {
			lower = lower[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(lower)
}
