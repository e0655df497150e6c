package classifier

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Milk 1L 45.00", []string{"milk"}},
		{"$5 12 Iced Coffee", []string{"iced", "coffee"}},
		{"Domino's pizza x2", []string{"domino's", "pizza", "x2"}},
		{"(Bananas)", []string{"bananas"}},
		{"*** TOTAL 12.00", []string{}},
		{"", []string{}},
		{"12 3.5 ₹40", []string{}},
	}
	for _, tc := range cases {
		got := Tokens(tc.in)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tokens(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
