package features

import (
	"fmt"

	"github.com/pprl-toolkit/pprl-go/internal/table"
)

// ColumnKind names one of the semantic column types the feature factory
// recognises.
type ColumnKind string

const (
	KindName         ColumnKind = "name"
	KindDOB          ColumnKind = "dob"
	KindSex          ColumnKind = "sex"
	KindMisc         ColumnKind = "misc"
	KindMiscShingled ColumnKind = "misc_shingled"
)

// Func generates, for a column of raw values, the token list for each
// row. values are the column's original, untyped scalars — not yet
// stringified — because some kinds (sex) must distinguish a genuine
// string from a non-string scalar that merely stringifies to something
// string-shaped. Kinds that don't care about the distinction normalise
// via table.Strings themselves. label is the column name from the
// colspec, used by misc/misc_shingled to prefix their tokens. args is
// the per-kind option struct from Embedder.FFArgs, or nil to use
// defaults.
type Func func(values []any, label string, args any) ([][]string, error)

// Entry is one registry slot: a feature function paired with a stable
// string identity. The identity — not the function value itself — is
// what gets serialised and hashed into the embedder checksum, per the
// design notes' "registry of feature-function identities keyed by a
// stable string name" guidance.
type Entry struct {
	Identity string
	Fn       Func
}

// Registry maps column kinds to their feature-generating entry. Two
// Embedders must share byte-identical registries (by identity string,
// not Go identity) to produce compatible Bloom encodings.
type Registry map[ColumnKind]Entry

// DefaultRegistry returns the five column-kind feature functions
// described in spec.md §4.1.
func DefaultRegistry() Registry {
	return Registry{
		KindName:         {Identity: "features.name.v1", Fn: nameFunc},
		KindDOB:          {Identity: "features.dob.v1", Fn: dobFunc},
		KindSex:          {Identity: "features.sex.v1", Fn: sexFunc},
		KindMisc:         {Identity: "features.misc.v1", Fn: miscFunc},
		KindMiscShingled: {Identity: "features.misc_shingled.v1", Fn: miscShingledFunc},
	}
}

func nameFunc(values []any, _ string, args any) ([][]string, error) {
	opts := DefaultGenOptions()
	if args != nil {
		o, ok := args.(GenOptions)
		if !ok {
			return nil, fmt.Errorf("features: name args must be features.GenOptions, got %T", args)
		}
		opts = o
	}
	return GenNameFeatures(table.Strings(values), opts), nil
}

func dobFunc(values []any, _ string, args any) ([][]string, error) {
	opts := DefaultDOBOptions()
	if args != nil {
		o, ok := args.(DOBOptions)
		if !ok {
			return nil, fmt.Errorf("features: dob args must be features.DOBOptions, got %T", args)
		}
		opts = o
	}
	return GenDOBFeatures(table.Strings(values), opts), nil
}

func sexFunc(values []any, _ string, args any) ([][]string, error) {
	if args != nil {
		return nil, fmt.Errorf("features: sex takes no args, got %T", args)
	}
	return GenSexFeatures(values), nil
}

func miscFunc(values []any, label string, args any) ([][]string, error) {
	if args != nil {
		if l, ok := args.(string); ok && l != "" {
			label = l
		} else if !ok {
			return nil, fmt.Errorf("features: misc args must be a string label, got %T", args)
		}
	}
	if label == "" {
		label = "misc"
	}
	return GenMiscFeatures(table.Strings(values), label), nil
}

func miscShingledFunc(values []any, label string, args any) ([][]string, error) {
	opts := MiscShingledOptions{NgramLength: []int{2, 3}}
	if args != nil {
		o, ok := args.(MiscShingledOptions)
		if !ok {
			return nil, fmt.Errorf("features: misc_shingled args must be features.MiscShingledOptions, got %T", args)
		}
		opts = o
	}
	if opts.Label == "" {
		opts.Label = label
	}
	if opts.Label == "" {
		opts.Label = "zz"
	}
	return GenMiscShingledFeatures(table.Strings(values), opts), nil
}
