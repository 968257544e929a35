package findings

import "github.com/sevigo/diff-warden/internal/core"

type dedupeKey struct {
	file       string
	line       int
	weaknessID string
}

// Dedupe keeps the first finding for each (file, line, weakness) triple and drops the
// rest, preserving order. Findings without a weakness classification are always kept.
func Dedupe(list []core.Finding) []core.Finding {
	seen := make(map[dedupeKey]struct{}, len(list))
	out := make([]core.Finding, 0, len(list))

	for _, f := range list {
		if f.WeaknessID == core.NotApplicable {
			out = append(out, f)
			continue
		}
		key := dedupeKey{file: f.File, line: f.Line(), weaknessID: f.WeaknessID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
