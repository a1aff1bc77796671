package catalog

import "testing"

func TestDocumentText(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want string
	}{
		{"searchable text wins", Product{SearchableText: "  nitrile gloves  ", Title: "ignored"}, "nitrile gloves"},
		{"joined fields", Product{Title: "Drill", Description: "18V cordless", Vendor: "Bolt", Category: "Tools"}, "Drill 18V cordless Bolt Tools"},
		{"skips blanks", Product{Title: "Drill", Description: " ", Category: "Tools"}, "Drill Tools"},
		{"empty", Product{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.DocumentText(); got != tc.want {
				t.Errorf("DocumentText() = %q, want %q", got, tc.want)
			}
		})
	}
}
