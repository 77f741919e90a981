package main

import (
	"fmt"
	"strings"

	"github.com/pprl-toolkit/pprl-go/internal/features"
)

// parseColspec parses a comma-separated "column=kind" list, e.g.
// "name=name,dob=dob,sex=sex", into the colspec map Embed expects.
func parseColspec(raw string) (map[string]features.ColumnKind, error) {
	out := map[string]features.ColumnKind{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid colspec entry %q, want column=kind", part)
		}
		col, kind := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch features.ColumnKind(kind) {
		case features.KindName, features.KindDOB, features.KindSex, features.KindMisc, features.KindMiscShingled:
			out[col] = features.ColumnKind(kind)
		default:
			return nil, fmt.Errorf("unknown feature kind %q for column %q", kind, col)
		}
	}
	return out, nil
}
