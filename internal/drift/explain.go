package drift

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

const (
	// respellThreshold is the minimum Jaro-Winkler similarity at which a
	// replaced entity counts as a respelling of the original.
	respellThreshold = 0.85
)

// Axis names the comparison a [Finding] belongs to.
type Axis string

const (
	AxisNumber Axis = "number"
	AxisEntity Axis = "entity"
)

// ChangeKind classifies a single difference between original and cleaned.
type ChangeKind string

const (
	// ChangeRemoved: present in the original, absent from the cleaned text.
	ChangeRemoved ChangeKind = "removed"
	// ChangeAdded: absent from the original, present in the cleaned text.
	ChangeAdded ChangeKind = "added"
	// ChangeReplaced: a token replaced by an unrelated one.
	ChangeReplaced ChangeKind = "replaced"
	// ChangeRespelled: an entity replaced by a phonetically or orthographically
	// close spelling, typically a speech-to-text correction.
	ChangeRespelled ChangeKind = "respelled"
	// ChangeRelabeled: same surface text, different entity label.
	ChangeRelabeled ChangeKind = "relabeled"
	// ChangeReordered: same tokens with the same counts in a different order.
	ChangeReordered ChangeKind = "reordered"
)

// Finding is a human-readable explanation of one difference in a [Report].
// It annotates a flag; it never clears one.
type Finding struct {
	Axis     Axis       `json:"axis"`
	Kind     ChangeKind `json:"kind"`
	Original string     `json:"original,omitempty"`
	Cleaned  string     `json:"cleaned,omitempty"`
}

// String renders the finding as a one-line sentence.
func (f Finding) String() string {
	switch f.Kind {
	case ChangeRemoved:
		return fmt.Sprintf("%s %q removed", f.Axis, f.Original)
	case ChangeAdded:
		return fmt.Sprintf("%s %q added", f.Axis, f.Cleaned)
	case ChangeReordered:
		return fmt.Sprintf("%ss reordered", f.Axis)
	default:
		return fmt.Sprintf("%s %s: %q -> %q", f.Axis, f.Kind, f.Original, f.Cleaned)
	}
}

// Explain lists the differences behind each mismatch in r. It returns an
// empty slice for a report that is not flagged.
func Explain(r Report) []Finding {
	out := []Finding{}
	if r.Numbers.Mismatch {
		out = append(out, explainNumbers(r.Numbers.OriginalNumbers, r.Numbers.CleanedNumbers)...)
	}
	if r.Entities.Mismatch {
		out = append(out, explainEntities(r.Entities.OriginalEntities, r.Entities.CleanedEntities)...)
	}
	return out
}

func explainNumbers(a, b []string) []Finding {
	if sameMultiset(a, b) {
		return []Finding{{Axis: AxisNumber, Kind: ChangeReordered}}
	}
	var out []Finding
	for _, op := range diff(a, b) {
		f := Finding{Axis: AxisNumber, Original: op.from, Cleaned: op.to}
		switch {
		case op.hasFrom && op.hasTo:
			f.Kind = ChangeReplaced
		case op.hasFrom:
			f.Kind = ChangeRemoved
		default:
			f.Kind = ChangeAdded
		}
		out = append(out, f)
	}
	return out
}

func explainEntities(a, b []ner.Entity) []Finding {
	if sameMultiset(a, b) {
		return []Finding{{Axis: AxisEntity, Kind: ChangeReordered}}
	}
	var out []Finding
	for _, op := range diff(a, b) {
		f := Finding{Axis: AxisEntity}
		if op.hasFrom {
			f.Original = op.from.String()
		}
		if op.hasTo {
			f.Cleaned = op.to.String()
		}
		switch {
		case op.hasFrom && op.hasTo:
			f.Kind = classifyEntityChange(op.from, op.to)
		case op.hasFrom:
			f.Kind = ChangeRemoved
		default:
			f.Kind = ChangeAdded
		}
		out = append(out, f)
	}
	return out
}

// classifyEntityChange decides whether b is a relabelling, a respelling or an
// outright replacement of a.
func classifyEntityChange(a, b ner.Entity) ChangeKind {
	if strings.EqualFold(a.Text, b.Text) && a.Label != b.Label {
		return ChangeRelabeled
	}
	if similarSpelling(a.Text, b.Text) {
		return ChangeRespelled
	}
	return ChangeReplaced
}

// similarSpelling reports whether two surface forms are close either in
// spelling (Jaro-Winkler) or in sound (Double Metaphone).
func similarSpelling(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if matchr.JaroWinkler(la, lb, false) >= respellThreshold {
		return true
	}
	p1, s1 := matchr.DoubleMetaphone(la)
	p2, s2 := matchr.DoubleMetaphone(lb)
	if p1 == "" || p2 == "" {
		return false
	}
	return p1 == p2 || (s1 != "" && s1 == p2) || (s2 != "" && p1 == s2)
}

// edit is one aligned difference between two sequences. A replacement has
// both sides set.
type edit[T any] struct {
	from, to       T
	hasFrom, hasTo bool
}

// diff aligns a and b on their longest common subsequence and returns the
// differences. Within each gap between common elements, removed and added
// elements are paired positionally as replacements; the surplus on either
// side is reported as removals or additions.
func diff[T comparable](a, b []T) []edit[T] {
	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var out []edit[T]
	var removed, added []T
	flush := func() {
		n := max(len(removed), len(added))
		for k := range n {
			var e edit[T]
			if k < len(removed) {
				e.from, e.hasFrom = removed[k], true
			}
			if k < len(added) {
				e.to, e.hasTo = added[k], true
			}
			out = append(out, e)
		}
		removed, added = removed[:0], added[:0]
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			flush()
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			removed = append(removed, a[i])
			i++
		default:
			added = append(added, b[j])
			j++
		}
	}
	removed = append(removed, a[i:]...)
	added = append(added, b[j:]...)
	flush()
	return out
}
