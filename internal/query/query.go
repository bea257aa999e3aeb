// Package query implements the query analyzer: free-text classification,
// clinical four-part question parsing, and controlled-vocabulary expansion,
// producing the NormalizedQuery object every source adapter consumes.
package query

import (
	"regexp"
	"strings"
)

// Class is the classification the analyzer assigns to a free-text query.
type Class string

const (
	ClassSimpleTopic      Class = "simple-topic"
	ClassBoolean          Class = "boolean"
	ClassClinicalQuestion Class = "clinical-question"
	ClassIdentifierLookup Class = "identifier-lookup"
)

// ClinicalParts is the four-element decomposition of a clinical question.
// Unparseable parts are left empty, never guessed.
type ClinicalParts struct {
	Population   string
	Intervention string
	Comparator   string
	Outcome      string
}

// Matched counts how many of the four parts were successfully parsed,
// used by the ranker's specificity component.
func (c ClinicalParts) Matched() int {
	n := 0
	for _, p := range []string{c.Population, c.Intervention, c.Comparator, c.Outcome} {
		if p != "" {
			n++
		}
	}
	return n
}

// DateRange bounds publication dates; zero values mean unbounded.
type DateRange struct {
	FromYear int
	ToYear   int
}

// NormalizedQuery is the adapter-facing query object. Each adapter
// translates only the subset of fields it supports.
type NormalizedQuery struct {
	Raw string

	Class         Class
	FreeText      string
	Vocabulary    []string // controlled-vocabulary terms after expansion
	Combinators   []string // AND/OR/NOT tokens, in order, for boolean queries
	Clinical      ClinicalParts
	DateRange     DateRange
	DocumentTypes []string
	Language      string
	OpenAccess    bool
	Demographics  map[string]string

	// VocabularyExpansion maps each recognized topic term to its synonym
	// bag and preferred canonical form (filled in by Expand).
	VocabularyExpansion map[string]Expansion
}

// Expansion is one term's thesaurus lookup result.
type Expansion struct {
	Synonyms  []string
	Canonical string
}

// UnsupportedFilter is returned by an adapter when it cannot honor part of
// the query, so the ranker can discount that source's authority for this
// search (component design §4.2).
type UnsupportedFilter struct {
	Field  string
	Reason string
}

var (
	idPattern      = regexp.MustCompile(`^(PMID|PMC|doi|DOI)[:\s]*[\w./\-]+$`)
	bareIDPattern  = regexp.MustCompile(`^\d{4,9}$`)
	booleanPattern = regexp.MustCompile(`\b(AND|OR|NOT)\b`)
	// "population vs intervention" / "X compared to Y ... outcome" style phrases.
	clinicalHintPattern = regexp.MustCompile(`(?i)\b(vs\.?|versus|compared to|compared with)\b`)
)

// Analyzer classifies and expands free-text queries.
type Analyzer struct {
	thesaurus Thesaurus
}

// Thesaurus is the capability the biomedical thesaurus adapter exposes to
// the analyzer; unknown terms pass through unchanged.
type Thesaurus interface {
	Synonyms(term string) (synonyms []string, canonical string, ok bool)
}

func NewAnalyzer(thesaurus Thesaurus) *Analyzer {
	return &Analyzer{thesaurus: thesaurus}
}

// Classify implements the heuristics in component design §4.4.
func Classify(raw string) Class {
	trimmed := strings.TrimSpace(raw)
	if idPattern.MatchString(trimmed) || bareIDPattern.MatchString(trimmed) {
		return ClassIdentifierLookup
	}
	if booleanPattern.MatchString(trimmed) && strings.Contains(trimmed, "[") {
		return ClassBoolean
	}
	if booleanPattern.MatchString(trimmed) {
		return ClassBoolean
	}
	if clinicalHintPattern.MatchString(trimmed) {
		return ClassClinicalQuestion
	}
	return ClassSimpleTopic
}

// ParseClinical decomposes a PICO-style free-text question into its four
// labeled parts. It never guesses: a part it cannot confidently locate is
// left empty.
//
// Recognized shape: "<intervention> in|with|among <population> vs <comparator>
// for|on|regarding <outcome>" — the analyzer looks for the comparator marker
// first (most reliable signal), splits what follows it on the first outcome
// marker, and splits what precedes it on the first "in"/"with"/"among" into
// intervention and population. A population placed after the comparator is
// not split out; it stays part of the comparator.
func ParseClinical(raw string) ClinicalParts {
	var parts ClinicalParts
	text := strings.TrimSpace(raw)

	vsLoc := clinicalHintPattern.FindStringIndex(text)
	if vsLoc == nil {
		return parts
	}
	before := strings.TrimSpace(text[:vsLoc[0]])
	after := strings.TrimSpace(text[vsLoc[1]:])

	outcomeMarkers := []string{" for ", " on ", " regarding "}
	comparator, outcome := splitOnFirstMarker(after, outcomeMarkers)
	parts.Comparator = comparator
	parts.Outcome = outcome

	popMarkers := []string{" in ", " with ", " among "}
	intervention, population := splitOnFirstMarker(before, popMarkers)
	if population != "" {
		parts.Intervention = intervention
		parts.Population = population
	} else {
		parts.Intervention = before
	}

	return parts
}

func splitOnFirstMarker(s string, markers []string) (before, after string) {
	lower := strings.ToLower(s)
	bestIdx := -1
	bestMarker := ""
	for _, m := range markers {
		if idx := strings.Index(lower, m); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
			bestIdx = idx
			bestMarker = m
		}
	}
	if bestIdx == -1 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:bestIdx]), strings.TrimSpace(s[bestIdx+len(bestMarker):])
}

// Analyze classifies raw and produces a NormalizedQuery, expanding
// vocabulary terms for simple-topic and boolean queries.
func (a *Analyzer) Analyze(raw string) *NormalizedQuery {
	class := Classify(raw)
	nq := &NormalizedQuery{
		Raw:      raw,
		Class:    class,
		FreeText: raw,
	}

	switch class {
	case ClassClinicalQuestion:
		nq.Clinical = ParseClinical(raw)
	case ClassBoolean:
		nq.Combinators = booleanPattern.FindAllString(raw, -1)
	}

	if class == ClassSimpleTopic || class == ClassBoolean {
		nq.VocabularyExpansion = a.Expand(tokenizeTerms(raw))
	}

	return nq
}

// Expand calls the thesaurus adapter for each term; unknown terms pass
// through unchanged (present in the map with themselves as canonical and
// no synonyms).
func (a *Analyzer) Expand(terms []string) map[string]Expansion {
	out := make(map[string]Expansion, len(terms))
	for _, term := range terms {
		if a.thesaurus == nil {
			out[term] = Expansion{Canonical: term}
			continue
		}
		syn, canonical, ok := a.thesaurus.Synonyms(term)
		if !ok {
			out[term] = Expansion{Canonical: term}
			continue
		}
		out[term] = Expansion{Synonyms: syn, Canonical: canonical}
	}
	return out
}

func tokenizeTerms(raw string) []string {
	fields := strings.Fields(raw)
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if f == "" || booleanPattern.MatchString(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
