package features

import (
	"sort"
	"testing"
)

func TestSplitStringUnderscore(t *testing.T) {
	got := SplitStringUnderscore("dave  william johnson")
	want := []string{"_dave_", "_william_", "_johnson_"}
	assertStringSlice(t, got, want)
}

func TestSplitStringUnderscoreIdempotentAfterRejoin(t *testing.T) {
	// Property 13: splitting, rejoining on " ", and splitting again should
	// yield the same token set.
	inputs := []string{"dave  william johnson", "Francesca__Hogan-O'Malley", "a-b_c.d"}
	for _, in := range inputs {
		once := SplitStringUnderscore(in)
		twice := SplitStringUnderscore(joinWithSpace(once))
		sort.Strings(once)
		sort.Strings(twice)
		assertStringSlice(t, twice, once)
	}
}

func joinWithSpace(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

func TestGenNgramSkipsAllUnderscore(t *testing.T) {
	got := GenNgram([]string{"_a_"}, []int{3})
	if len(got) != 1 || got[0] != "_a_" {
		t.Fatalf("expected [_a_], got %v", got)
	}

	got = GenNgram([]string{"_ab_"}, []int{1})
	for _, g := range got {
		if g == "_" {
			t.Fatalf("expected all-underscore 1-gram to be skipped, got %v", got)
		}
	}
}

func TestGenSexFeatures(t *testing.T) {
	// spec.md §8 Scenario B: gen_sex(["Ostrich","Male",None,"female",42])
	// -> [["sex<o>"],["sex<m>"],[""],["sex<f>"],[""]]. A non-string
	// scalar (42) is missing data, same as nil, not the string "42".
	got := GenSexFeatures([]any{"Ostrich", "Male", nil, "female", 42})
	want := [][]string{{"sex<o>"}, {"sex<m>"}, {""}, {"sex<f>"}, {""}}
	for i := range want {
		assertStringSlice(t, got[i], want[i])
	}
}

func TestGenDOBFeaturesDefaultOnFailure(t *testing.T) {
	opts := DOBOptions{DayFirst: true, Default: []string{"missing"}}
	got := GenDOBFeatures([]string{"01/03/2012", "12/25/1993", "11/12/1960", ""}, opts)

	want := [][]string{
		{"day<01>", "month<03>", "year<2012>"},
		{"missing"},
		{"day<11>", "month<12>", "year<1960>"},
		{"missing"},
	}
	for i := range want {
		assertStringSlice(t, got[i], want[i])
	}
}

func TestGenMiscFeatures(t *testing.T) {
	got := GenMiscFeatures([]string{"Wales", ""}, "nationality")
	assertStringSlice(t, got[0], []string{"nationality<wales>"})
	assertStringSlice(t, got[1], []string{""})
}

func TestGenMiscShingledFeaturesLabelsEveryGram(t *testing.T) {
	got := GenMiscShingledFeatures([]string{"ab"}, MiscShingledOptions{NgramLength: []int{2}, Label: "zz"})
	for _, tok := range got[0] {
		if tok[:3] != "zz<" {
			t.Fatalf("expected every token labelled zz<...>, got %v", got[0])
		}
	}
}

func TestDoubleMetaphoneSuppressesEmptyKeys(t *testing.T) {
	primary, _ := DoubleMetaphone("")
	if primary != "" {
		t.Fatalf("expected empty primary for empty word, got %q", primary)
	}
	p, _ := DoubleMetaphone("Smith")
	if p == "" {
		t.Fatal("expected non-empty metaphone key for 'Smith'")
	}
}

func assertStringSlice(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
