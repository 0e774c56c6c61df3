package drift

import (
	"testing"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

func TestExplain_NotFlagged(t *testing.T) {
	t.Parallel()

	got := Explain(Report{})
	if got == nil || len(got) != 0 {
		t.Errorf("Explain(clean report) = %v, want empty", got)
	}
}

func TestExplain_Numbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want []Finding
	}{
		{
			name: "replaced",
			a:    []string{"1865"}, b: []string{"1900"},
			want: []Finding{{Axis: AxisNumber, Kind: ChangeReplaced, Original: "1865", Cleaned: "1900"}},
		},
		{
			name: "reordered",
			a:    []string{"3", "2"}, b: []string{"2", "3"},
			want: []Finding{{Axis: AxisNumber, Kind: ChangeReordered}},
		},
		{
			name: "removed",
			a:    []string{"5", "6"}, b: []string{"5"},
			want: []Finding{{Axis: AxisNumber, Kind: ChangeRemoved, Original: "6"}},
		},
		{
			name: "added in the middle",
			a:    []string{"1", "3"}, b: []string{"1", "2", "3"},
			want: []Finding{{Axis: AxisNumber, Kind: ChangeAdded, Cleaned: "2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Report{Numbers: NumericComparison{OriginalNumbers: tt.a, CleanedNumbers: tt.b, Mismatch: true}}
			got := Explain(r)
			if len(got) != len(tt.want) {
				t.Fatalf("Explain = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("finding %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExplain_Entities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b ner.Entity
		want ChangeKind
	}{
		{"respelled", ner.Entity{Text: "Eldrinn", Label: "PERSON"}, ner.Entity{Text: "Eldrin", Label: "PERSON"}, ChangeRespelled},
		{"sound-alike", ner.Entity{Text: "Katherine", Label: "PERSON"}, ner.Entity{Text: "Catherine", Label: "PERSON"}, ChangeRespelled},
		{"relabeled", ner.Entity{Text: "Washington", Label: "PERSON"}, ner.Entity{Text: "Washington", Label: "GPE"}, ChangeRelabeled},
		{"replaced", ner.Entity{Text: "Paris", Label: "GPE"}, ner.Entity{Text: "Tokyo", Label: "GPE"}, ChangeReplaced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Report{Entities: EntityComparison{
				OriginalEntities: []ner.Entity{tt.a},
				CleanedEntities:  []ner.Entity{tt.b},
				Mismatch:         true,
			}}
			got := Explain(r)
			if len(got) != 1 {
				t.Fatalf("Explain = %+v, want one finding", got)
			}
			if got[0].Kind != tt.want {
				t.Errorf("kind = %q, want %q", got[0].Kind, tt.want)
			}
			if got[0].Original != tt.a.String() || got[0].Cleaned != tt.b.String() {
				t.Errorf("finding sides = %q / %q", got[0].Original, got[0].Cleaned)
			}
		})
	}
}

func TestFinding_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		f    Finding
		want string
	}{
		{Finding{Axis: AxisNumber, Kind: ChangeReplaced, Original: "1865", Cleaned: "1900"}, `number replaced: "1865" -> "1900"`},
		{Finding{Axis: AxisNumber, Kind: ChangeRemoved, Original: "6"}, `number "6" removed`},
		{Finding{Axis: AxisEntity, Kind: ChangeAdded, Cleaned: "Rome (GPE)"}, `entity "Rome (GPE)" added`},
		{Finding{Axis: AxisNumber, Kind: ChangeReordered}, "numbers reordered"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	ops := diff([]string{"a", "b", "c", "d"}, []string{"a", "x", "c", "d", "e"})
	if len(ops) != 2 {
		t.Fatalf("diff = %+v, want replace b->x and add e", ops)
	}
	if !ops[0].hasFrom || !ops[0].hasTo || ops[0].from != "b" || ops[0].to != "x" {
		t.Errorf("first op = %+v", ops[0])
	}
	if ops[1].hasFrom || !ops[1].hasTo || ops[1].to != "e" {
		t.Errorf("second op = %+v", ops[1])
	}
	if len(diff([]int{1, 2}, []int{1, 2})) != 0 {
		t.Error("equal sequences must produce no edits")
	}
}
