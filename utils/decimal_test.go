package utils

import "testing"

func TestParsePrice_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"1,500", "1500"},
		{"12,345,678", "12345678"},
		{"0,5", "0.5"},
		{"0,500", "0.5"},
		{"1.500,000", "1500"},
		{"1234.56", "1234.56"},
		{"R$ 1.234,56", "1234.56"},
		{"R$ -20,00", "-20"},
		{"  1,234.50  ", "1234.5"},
		{"BRL 99,90", "99.9"},
	}
	for _, tc := range cases {
		d, err := ParsePrice(tc.in)
		if err != nil {
			t.Fatalf("ParsePrice(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParsePrice(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParsePrice_RejectsEmpty(t *testing.T) {
	if _, err := ParsePrice("   "); err == nil {
		t.Fatalf("expected error for blank input")
	}
	if _, err := ParsePrice("abc"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}
