package normalize

import "testing"

func TestDOI(t *testing.T) {
	cases := map[string]string{
		"10.1234/ABC.2023":                  "10.1234/abc.2023",
		"doi:10.1234/abc":                   "10.1234/abc",
		"https://doi.org/10.1234/abc":       "10.1234/abc",
		"http://dx.doi.org/10.1234/ABC":     "10.1234/abc",
		"  10.1234/abc  ":                   "10.1234/abc",
		"":                                  "",
	}
	for in, want := range cases {
		if got := DOI(in); got != want {
			t.Errorf("DOI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want PartialDate
	}{
		{"", PartialDate{}},
		{"2023", PartialDate{Year: 2023}},
		{"2023-04", PartialDate{Year: 2023, Month: 4}},
		{"2023-04-17", PartialDate{Year: 2023, Month: 4, Day: 17}},
		{"2023/04/17", PartialDate{Year: 2023, Month: 4, Day: 17}},
		{"2023-04-17T00:00:00Z", PartialDate{Year: 2023, Month: 4, Day: 17}},
		{"not-a-date", PartialDate{}},
	}
	for _, tc := range tests {
		if got := ParseDate(tc.in); got != tc.want {
			t.Errorf("ParseDate(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestPartialDateHelpers(t *testing.T) {
	unk := PartialDate{}
	if !unk.Unknown() || !unk.Partial() {
		t.Fatal("zero-value date should be unknown and partial")
	}
	full := PartialDate{Year: 2020, Month: 3, Day: 5}
	if full.Unknown() || full.Partial() {
		t.Fatal("full date should not be unknown or partial")
	}
	if full.String() != "2020-03-05" {
		t.Errorf("String() = %q", full.String())
	}
	yearOnly := PartialDate{Year: 2020}
	if !yearOnly.Partial() {
		t.Fatal("year-only date should be partial")
	}
	if yearOnly.EffectiveMonth() != 1 || yearOnly.EffectiveDay() != 1 {
		t.Fatal("missing month/day should default to January 1st")
	}
}

func TestTitle(t *testing.T) {
	in := "  The, Effect:  of COVID-19!! on Sleep  "
	want := "the effect of covid 19 on sleep"
	if got := Title(in); got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestAuthorLastName(t *testing.T) {
	if got := AuthorLastName("Jane A. Doe"); got != "doe" {
		t.Errorf("got %q", got)
	}
	if got := AuthorLastName("Doe, Jane"); got != "doe" {
		t.Errorf("got %q", got)
	}
}

func TestAuthorKey(t *testing.T) {
	if got := AuthorKey("Jane A. Doe"); got != "doe|j" {
		t.Errorf("got %q", got)
	}
	if got := AuthorKey("Doe, Jane"); got != "doe|j" {
		t.Errorf("got %q", got)
	}
}
