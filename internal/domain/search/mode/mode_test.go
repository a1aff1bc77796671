package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{KeywordOnly, Hybrid, SemanticOnly}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "keyword", "semantic", "vector", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"keyword_only", KeywordOnly},
		{"keyword", KeywordOnly},
		{"KEYWORD", KeywordOnly},
		{"hybrid", Hybrid},
		{" Hybrid ", Hybrid},
		{"semantic_only", SemanticOnly},
		{"semantic", SemanticOnly},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, in := range []string{"", "vector", "bm25"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}
