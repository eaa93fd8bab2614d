package verify

import "testing"

func TestNormalizeEUDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"01/03/2026", "2026-03-01", true},
		{"1/3/2026", "2026-03-01", true},
		{"15-09-2025", "2025-09-15", true},
		{"01/03/26", "2026-03-01", true},
		{"01/03/99", "1999-03-01", true},
		{"31/02/2026", "", false},
		{"1 de marzo de 2026", "", false},
		{"2026-03-01", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeEUDate(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeEUDate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizeCurrency(t *testing.T) {
	ptr := func(s string) *string { return &s }

	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"euro_symbol", ptr("€"), ptr("EUR")},
		{"dollar_symbol", ptr("$"), ptr("USD")},
		{"known_code_uppercased", ptr("eur"), ptr("EUR")},
		{"mixed_symbol", ptr("1.200 €"), ptr("EUR")},
		{"unknown_passthrough", ptr("pesetas"), ptr("pesetas")},
		{"nil_stays_nil", nil, nil},
		{"blank_becomes_nil", ptr("  "), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCurrency(tt.in)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("NormalizeCurrency() = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("NormalizeCurrency() = %q, want %q", *got, *tt.want)
			}
		})
	}
}
