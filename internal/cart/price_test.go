package cart

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"19,99 €", "19.99"},
		{"9,90€/kk", "9.9"},
		{"19.99", "19.99"},
		{"  129,00 €  ", "129"},
		{"1.299,00 €", "1299"},
		{"0,00 €", "0"},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in)
		if err != nil {
			t.Errorf("ParsePrice(%q) error: %v", c.in, err)
			continue
		}
		if got.String() != c.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParsePriceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "€", "ilmainen", "-5,00 €"} {
		if _, err := ParsePrice(in); err == nil {
			t.Errorf("ParsePrice(%q) should fail", in)
		}
	}
}
