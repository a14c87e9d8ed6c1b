package session

import (
	"slices"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	sum := Summarize(map[string]float64{"Loops": 0.8, "OOP": 0.5, "IO": 0.2})

	if got := Tags(sum.Strong); !slices.Equal(got, []string{"Loops"}) {
		t.Errorf("strong = %v", got)
	}
	if got := Tags(sum.Moderate); !slices.Equal(got, []string{"OOP"}) {
		t.Errorf("moderate = %v", got)
	}
	if got := Tags(sum.Weak); !slices.Equal(got, []string{"IO"}) {
		t.Errorf("weak = %v", got)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		belief float64
		want   Band
	}{
		{1.0, BandStrong},
		{0.7000001, BandStrong},
		{0.7, BandModerate},
		{0.3000001, BandModerate},
		{0.3, BandWeak},
		{0.0, BandWeak},
	}
	for _, tt := range tests {
		if got := Classify(tt.belief); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.belief, got, tt.want)
		}
	}
}

func TestSummarize_Ordering(t *testing.T) {
	sum := Summarize(map[string]float64{"b": 0.9, "a": 0.9, "c": 0.95, "d": 0.75})

	if got := Tags(sum.Strong); !slices.Equal(got, []string{"c", "a", "b", "d"}) {
		t.Fatalf("strong = %v, want belief desc then name", got)
	}
}

func TestSummarize_EmptyGroups(t *testing.T) {
	beliefs := map[string]float64{"Loops": 0.5}
	sum := Summarize(beliefs)

	if sum.Strong == nil || sum.Weak == nil {
		t.Fatal("empty groups must be empty lists, not nil")
	}
	if len(beliefs) != 1 || beliefs["Loops"] != 0.5 {
		t.Fatal("input mutated")
	}

	empty := Summarize(nil)
	if len(empty.Strong)+len(empty.Moderate)+len(empty.Weak) != 0 {
		t.Fatalf("summary of no beliefs = %+v", empty)
	}
}

func TestSummary_Report(t *testing.T) {
	sum := Summarize(map[string]float64{"Loops": 0.8, "OOP": 0.5})
	sum.Topic = "Python"
	sum.QuestionsAsked = 4

	report := sum.Report()
	for _, want := range []string{
		"Assessment of Python (4 questions)",
		"Strong (belief > 0.7):\n  - Loops (0.80)\n",
		"Moderate (0.3 < belief <= 0.7):\n  - OOP (0.50)\n",
		"Weak (belief <= 0.3):\n  (none)\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
