package canonical

import (
	"errors"
	"testing"

	"StockPilot/internal/domain/models"
)

func TestCanonicalizeAShare(t *testing.T) {
	c := New()
	cases := []struct {
		in   string
		want string
	}{
		{"SH600519", "600519"},
		{"sh600519", "600519"},
		{"600519.SH", "600519"},
		{"SH.600519", "600519"},
		{"600519", "600519"},
		{"SZ000001", "000001"},
		{"000001.SZ", "000001"},
		{"600519.XSHG", "600519"},
		{"300750", "300750"},
	}
	for _, tc := range cases {
		code, err := c.Canonicalize(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if code.Market != models.MarketAShare {
			t.Fatalf("%q: market %s, want a_share", tc.in, code.Market)
		}
		if code.Symbol != tc.want {
			t.Fatalf("%q: symbol %q, want %q", tc.in, code.Symbol, tc.want)
		}
		if !code.Valid() {
			t.Fatalf("%q: code not valid", tc.in)
		}
	}
}

func TestCanonicalizeHK(t *testing.T) {
	c := New()
	code, err := c.Canonicalize("HK00700")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if code.Market != models.MarketHK {
		t.Fatalf("market %s, want hk", code.Market)
	}
	if code.Symbol != "00700" {
		t.Fatalf("symbol %q, want 00700 with leading zeros kept", code.Symbol)
	}
	if code.String() != "HK00700" {
		t.Fatalf("rendering %q, want HK00700", code.String())
	}
}

func TestCanonicalizeUS(t *testing.T) {
	c := New()
	for _, in := range []string{"AAPL", "aapl", "MSFT", "BRK.B", "BF-B", "SHOP"} {
		code, err := c.Canonicalize(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if code.Market != models.MarketUS {
			t.Fatalf("%q: market %s, want us", in, code.Market)
		}
	}

	code, _ := c.Canonicalize("aapl")
	if code.Symbol != "AAPL" {
		t.Fatalf("symbol %q, want uppercased AAPL", code.Symbol)
	}
}

func TestCanonicalizeInvalid(t *testing.T) {
	c := New()
	for _, in := range []string{"", "  ", "12345", "1234567", "SH12345", "HK123456", "!!@@", "600ABC"} {
		_, err := c.Canonicalize(in)
		if err == nil {
			t.Fatalf("%q: expected error", in)
		}
		if !errors.Is(err, models.ErrInvalidCodeFormat) {
			t.Fatalf("%q: error %v, want ErrInvalidCodeFormat", in, err)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := New()
	for _, in := range []string{"SH600519", "HK00700", "AAPL", "000001.SZ"} {
		first, err := c.Canonicalize(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		second, err := c.Canonicalize(first.String())
		if err != nil {
			t.Fatalf("%q: second pass error %v", first.String(), err)
		}
		if second.Market != first.Market || second.Symbol != first.Symbol {
			t.Fatalf("%q: not idempotent, got %s/%s then %s/%s",
				in, first.Market, first.Symbol, second.Market, second.Symbol)
		}
	}
}

func TestZeroCodeInvalid(t *testing.T) {
	var zero Code
	if zero.Valid() {
		t.Fatalf("zero Code must not be valid")
	}
}
