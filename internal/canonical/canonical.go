package canonical

import (
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"
)

// Code is a market-tagged canonical stock code. Only this package can
// mint a valid Code: the facades check Valid to reject raw strings that
// skipped canonicalization.
type Code struct {
	Raw    string        `json:"raw"`
	Market models.Market `json:"market"`
	Symbol string        `json:"symbol"`

	ok bool
}

// Valid reports whether the code was produced by a Canonicalizer.
func (c Code) Valid() bool { return c.ok }

// String renders the canonical form. HK codes keep their market marker in
// front; A-share and US codes are the bare symbol.
func (c Code) String() string {
	if c.Market == models.MarketHK {
		return "HK" + c.Symbol
	}
	return c.Symbol
}

// Default A-share exchange tokens. The recognized set is configuration,
// not logic: deployments covering more notations extend it in config.
var (
	DefaultPrefixes = []string{"SH.", "SZ.", "BJ.", "SH", "SZ", "BJ"}
	DefaultSuffixes = []string{".SH", ".SZ", ".BJ", ".SS", ".XSHG", ".XSHE"}
)

// A-share codes start with 6 (SSE main board), 0 (SZSE main board),
// 3 (GEM/STAR) or 1/2 (B-shares).
const ashareFirstDigits = "01236"

// Canonicalizer normalizes heterogeneous ticker notations into a Code.
// It is pure and safe for concurrent use.
type Canonicalizer struct {
	prefixes []string
	suffixes []string
}

// New creates a Canonicalizer with the default A-share token tables.
func New() *Canonicalizer {
	return NewWithTokens(DefaultPrefixes, DefaultSuffixes)
}

// NewWithTokens creates a Canonicalizer recognizing the given A-share
// exchange prefix/suffix tokens. Tokens are matched case-insensitively;
// longer tokens must come first so "SH." wins over "SH".
func NewWithTokens(prefixes, suffixes []string) *Canonicalizer {
	c := &Canonicalizer{
		prefixes: make([]string, 0, len(prefixes)),
		suffixes: make([]string, 0, len(suffixes)),
	}
	for _, p := range prefixes {
		c.prefixes = append(c.prefixes, strings.ToUpper(p))
	}
	for _, s := range suffixes {
		c.suffixes = append(c.suffixes, strings.ToUpper(s))
	}
	return c
}

// Canonicalize classifies a raw ticker string. Rules, in order: explicit
// HK marker, A-share exchange token (or a bare 6-digit main-board code),
// else US with the symbol uppercased unchanged. Idempotent: feeding back
// a Code's String rendering yields the same Code.
func (c *Canonicalizer) Canonicalize(raw string) (Code, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Code{}, fmt.Errorf("%w: empty input", models.ErrInvalidCodeFormat)
	}

	// HK marker: "HK" followed by digits only. The digits stay intact,
	// leading zeros included.
	if rest, found := strings.CutPrefix(s, "HK"); found && rest != "" && isDigits(rest) {
		if len(rest) > 5 {
			return Code{}, fmt.Errorf("%w: %q has more than 5 digits after HK marker", models.ErrInvalidCodeFormat, raw)
		}
		return Code{Raw: raw, Market: models.MarketHK, Symbol: rest, ok: true}, nil
	}

	// A-share exchange token. A matched token only claims the input when
	// it wraps a numeric core; otherwise the match is coincidence (the
	// bare "SH" token against a US ticker like SHOP) and the input falls
	// through to the later rules.
	if core, stripped := c.stripAShareTokens(s); stripped && isDigits(core) {
		if len(core) != 6 {
			return Code{}, fmt.Errorf("%w: %q does not wrap a 6-digit A-share core", models.ErrInvalidCodeFormat, raw)
		}
		return Code{Raw: raw, Market: models.MarketAShare, Symbol: core, ok: true}, nil
	}

	// Bare 6-digit code on a known board is A-share even without a token.
	if len(s) == 6 && isDigits(s) && strings.ContainsRune(ashareFirstDigits, rune(s[0])) {
		return Code{Raw: raw, Market: models.MarketAShare, Symbol: s, ok: true}, nil
	}

	// Everything digits-only that is not A-share or HK is ambiguous.
	if isDigits(s) {
		return Code{}, fmt.Errorf("%w: %q is numeric but matches no market", models.ErrInvalidCodeFormat, raw)
	}

	if !isUSTicker(s) {
		return Code{}, fmt.Errorf("%w: %q contains characters illegal for a US ticker", models.ErrInvalidCodeFormat, raw)
	}
	return Code{Raw: raw, Market: models.MarketUS, Symbol: s, ok: true}, nil
}

// stripAShareTokens removes at most one known prefix and one known suffix.
// The second return is true when any token matched.
func (c *Canonicalizer) stripAShareTokens(s string) (string, bool) {
	stripped := false
	for _, p := range c.prefixes {
		if rest, found := strings.CutPrefix(s, p); found && rest != "" {
			s = rest
			stripped = true
			break
		}
	}
	for _, suf := range c.suffixes {
		if rest, found := strings.CutSuffix(s, suf); found && rest != "" {
			s = rest
			stripped = true
			break
		}
	}
	return s, stripped
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// isUSTicker accepts 1-10 chars starting with a letter, with letters,
// digits and the class separators '.' and '-' (BRK.B, BF-B).
func isUSTicker(s string) bool {
	if len(s) == 0 || len(s) > 10 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}
