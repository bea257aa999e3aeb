package query

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Class{
		"remimazolam ICU sedation":                          ClassSimpleTopic,
		"34534553":                                           ClassIdentifierLookup,
		"PMID:34534553":                                      ClassIdentifierLookup,
		"sepsis[TIAB] AND children[MESH] NOT neonates":       ClassBoolean,
		"remimazolam vs propofol for delirium in ICU patients": ClassClinicalQuestion,
	}
	for in, want := range cases {
		if got := Classify(in); got != want {
			t.Errorf("Classify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseClinical(t *testing.T) {
	got := ParseClinical("remimazolam in ICU patients vs propofol for delirium")
	want := ClinicalParts{
		Population:   "ICU patients",
		Intervention: "remimazolam",
		Comparator:   "propofol",
		Outcome:      "delirium",
	}
	if got != want {
		t.Errorf("ParseClinical() = %+v, want %+v", got, want)
	}
	if got.Matched() != 4 {
		t.Errorf("Matched() = %d, want 4", got.Matched())
	}
}

func TestParseClinical_Unparseable(t *testing.T) {
	got := ParseClinical("just a plain topic query")
	if got.Matched() != 0 {
		t.Errorf("expected no parts matched for non-clinical text, got %+v", got)
	}
}

type fakeThesaurus struct{}

func (fakeThesaurus) Synonyms(term string) ([]string, string, bool) {
	if term == "MI" {
		return []string{"myocardial infarction", "heart attack"}, "Myocardial Infarction", true
	}
	return nil, "", false
}

func TestAnalyzer_Expand(t *testing.T) {
	a := NewAnalyzer(fakeThesaurus{})
	nq := a.Analyze("MI treatment")
	exp, ok := nq.VocabularyExpansion["MI"]
	if !ok {
		t.Fatal("expected expansion entry for MI")
	}
	if exp.Canonical != "Myocardial Infarction" || len(exp.Synonyms) != 2 {
		t.Errorf("unexpected expansion: %+v", exp)
	}
	// Unknown term passes through unchanged.
	exp2, ok := nq.VocabularyExpansion["treatment"]
	if !ok || exp2.Canonical != "treatment" || len(exp2.Synonyms) != 0 {
		t.Errorf("expected passthrough for unknown term, got %+v", exp2)
	}
}

func TestAnalyzer_NoThesaurus(t *testing.T) {
	a := NewAnalyzer(nil)
	nq := a.Analyze("sepsis treatment")
	if nq.Class != ClassSimpleTopic {
		t.Fatalf("expected simple-topic, got %s", nq.Class)
	}
	if len(nq.VocabularyExpansion) == 0 {
		t.Fatal("expected expansion map to be populated even without a thesaurus")
	}
}
