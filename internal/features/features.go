// Package features turns raw table columns into labelled token lists, one
// family of functions per semantic column kind (name, dob, sex, misc,
// misc_shingled). Every function here is a pure function of its inputs;
// none of them touch the network, the filesystem, or a clock.
package features

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// splitRE matches the punctuation/whitespace runs that separate words for
// SplitStringUnderscore.
var splitRE = regexp.MustCompile(`[\s+\-_,.]+`)

// SplitStringUnderscore splits s on any run of space, +, -, _, , or ., and
// wraps each surviving word in underscores as a word-boundary sentinel, so
// that n-grams taken near the edges of a word stay distinguishable from
// n-grams in the middle of a longer one.
func SplitStringUnderscore(s string) []string {
	words := splitRE.Split(s, -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, "_"+w+"_")
	}
	return out
}

// GenNgram yields every contiguous substring of each token whose length is
// one of lengths, skipping any n-gram made only of underscores (such as
// the lone "_" 1-gram). Tokens shorter than n yield no n-grams.
func GenNgram(tokens []string, lengths []int) []string {
	var out []string
	for _, n := range lengths {
		if n <= 0 {
			continue
		}
		for _, tok := range tokens {
			runes := []rune(tok)
			for i := 0; i+n <= len(runes); i++ {
				gram := string(runes[i : i+n])
				if allUnderscore(gram) {
					continue
				}
				out = append(out, gram)
			}
		}
	}
	return out
}

func allUnderscore(s string) bool {
	for _, r := range s {
		if r != '_' {
			return false
		}
	}
	return true
}

// GenSkipGrams yields the skip-2-gram t[i]+t[i+2] for every valid i in
// each token.
func GenSkipGrams(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		runes := []rune(tok)
		for i := 0; i+2 < len(runes); i++ {
			out = append(out, string(runes[i])+string(runes[i+2]))
		}
	}
	return out
}

// GenDoubleMetaphone yields up to two phonetic keys (primary and
// alternate) per whitespace-separated word in s, suppressing empty keys.
func GenDoubleMetaphone(s string) []string {
	var out []string
	for _, word := range strings.Fields(s) {
		primary, alternate := DoubleMetaphone(word)
		if primary != "" {
			out = append(out, primary)
		}
		if alternate != "" && alternate != primary {
			out = append(out, alternate)
		}
	}
	return out
}

// GenOptions configures GenFeatures and, by extension, GenNameFeatures and
// GenMiscShingledFeatures.
type GenOptions struct {
	NgramLength        []int
	UseNgram           bool
	UseSkipGrams       bool
	UseDoubleMetaphone bool
}

// DefaultGenOptions mirrors the Python defaults: 2- and 3-grams, no skip
// grams, no double metaphone.
func DefaultGenOptions() GenOptions {
	return GenOptions{NgramLength: []int{2, 3}, UseNgram: true}
}

// GenFeatures lower-cases and word-splits s, then emits whichever of
// n-grams, skip-2-grams, and double-metaphone keys opts selects.
func GenFeatures(s string, opts GenOptions) []string {
	lower := strings.ToLower(s)
	tokens := SplitStringUnderscore(lower)

	var out []string
	if opts.UseNgram {
		out = append(out, GenNgram(tokens, opts.NgramLength)...)
	}
	if opts.UseSkipGrams {
		out = append(out, GenSkipGrams(tokens)...)
	}
	if opts.UseDoubleMetaphone {
		out = append(out, GenDoubleMetaphone(lower)...)
	}
	return out
}

// GenNameFeatures generates, per row, the n-gram/skip-gram/metaphone
// features of a name column. Missing (empty) names produce an empty
// token list.
func GenNameFeatures(names []string, opts GenOptions) [][]string {
	out := make([][]string, len(names))
	for i, name := range names {
		if name == "" {
			out[i] = []string{}
			continue
		}
		out[i] = GenFeatures(name, opts)
	}
	return out
}

// GenSexFeatures generates a single ["sex<x>"] token per row, where x is
// the casefolded first character of the value. Sex is the one column
// kind where a value's original type matters: only a genuine string is
// eligible to become a token. nil and any other scalar (an int, say)
// are missing data, exactly like an empty string, and produce [""], a
// sentinel treated as empty by the embedder. Operating on the
// stringified column here would conflate a real string like "42" with
// the integer 42 — the two must not collide.
func GenSexFeatures(sexes []any) [][]string {
	out := make([][]string, len(sexes))
	for i, v := range sexes {
		s, ok := v.(string)
		if !ok {
			out[i] = []string{""}
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			out[i] = []string{""}
			continue
		}
		first := string([]rune(s)[0])
		out[i] = []string{fmt.Sprintf("sex<%s>", first)}
	}
	return out
}

// DOBOptions configures GenDOBFeatures.
type DOBOptions struct {
	DayFirst  bool
	YearFirst bool
	Default   []string
}

// DefaultDOBOptions mirrors the Python defaults.
func DefaultDOBOptions() DOBOptions {
	return DOBOptions{
		DayFirst: true,
		Default:  []string{"day<01>", "month<01>", "year<2050>"},
	}
}

// GenDOBFeatures generates ["day<DD>", "month<MM>", "year<YYYY>"] per row.
// On parse failure it substitutes opts.Default; this is the one feature
// function where a parse error is expected and handled locally rather
// than propagated (spec's DateParseFailure never leaves this function).
func GenDOBFeatures(dates []string, opts DOBOptions) [][]string {
	out := make([][]string, len(dates))
	for i, raw := range dates {
		day, month, year, ok := parseDate(raw, opts.DayFirst, opts.YearFirst)
		if !ok {
			out[i] = append([]string(nil), opts.Default...)
			continue
		}
		out[i] = []string{
			fmt.Sprintf("day<%02d>", day),
			fmt.Sprintf("month<%02d>", month),
			fmt.Sprintf("year<%04d>", year),
		}
	}
	return out
}

var dateSplitRE = regexp.MustCompile(`[^0-9]+`)

// parseDate is a deliberately strict numeric date parser: it expects
// exactly three numeric components, picks the year by position (per
// yearfirst) rather than by guessing from digit count, and assigns the
// remaining two components to day/month per dayfirst without ever
// falling back to the other ordering. This mirrors the narrow behaviour
// implied by the spec's worked example: "12/25/1993" under dayfirst=true
// fails to parse (25 is not a valid month) rather than being silently
// reinterpreted as month-first.
func parseDate(raw string, dayFirst, yearFirst bool) (day, month, year int, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, 0, false
	}

	parts := dateSplitRE.Split(s, -1)
	filtered := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) != 3 {
		return parseNamedMonthDate(s)
	}

	nums := make([]int, 3)
	for i, p := range filtered {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}

	var remaining [2]int
	if yearFirst {
		year = nums[0]
		remaining = [2]int{nums[1], nums[2]}
	} else {
		year = nums[2]
		remaining = [2]int{nums[0], nums[1]}
	}
	if year < 100 {
		year += 2000
	}

	if dayFirst {
		day, month = remaining[0], remaining[1]
	} else {
		month, day = remaining[0], remaining[1]
	}

	if !validDate(year, month, day) {
		return 0, 0, 0, false
	}
	return day, month, year, true
}

var namedMonthLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

func parseNamedMonthDate(s string) (day, month, year int, ok bool) {
	for _, layout := range namedMonthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Day(), int(t.Month()), t.Year(), true
		}
	}
	return 0, 0, 0, false
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// GenMiscFeatures generates a single ["label<value>"] token per row from
// any scalar column, casefolded. Missing values produce [""].
func GenMiscFeatures(values []string, label string) [][]string {
	out := make([][]string, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = []string{""}
			continue
		}
		out[i] = []string{fmt.Sprintf("%s<%s>", label, strings.ToLower(v))}
	}
	return out
}

// MiscShingledOptions configures GenMiscShingledFeatures.
type MiscShingledOptions struct {
	NgramLength  []int
	UseSkipGrams bool
	Label        string
}

// DefaultMiscShingledOptions mirrors the Python defaults.
func DefaultMiscShingledOptions(label string) MiscShingledOptions {
	return MiscShingledOptions{NgramLength: []int{2, 3}, Label: label}
}

// GenMiscShingledFeatures generates shingled (n-gram, optionally
// skip-gram) features of a string column, each wrapped as "label<gram>"
// so they hash into a disjoint part of the token universe from plain
// name features.
func GenMiscShingledFeatures(values []string, opts MiscShingledOptions) [][]string {
	genOpts := GenOptions{
		NgramLength:  opts.NgramLength,
		UseNgram:     true,
		UseSkipGrams: opts.UseSkipGrams,
	}

	out := make([][]string, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = []string{}
			continue
		}
		raw := GenFeatures(v, genOpts)
		wrapped := make([]string, len(raw))
		for j, feat := range raw {
			wrapped[j] = fmt.Sprintf("%s<%s>", opts.Label, feat)
		}
		out[i] = wrapped
	}
	return out
}
