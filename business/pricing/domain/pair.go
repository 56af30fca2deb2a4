// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"
)

// Pair is a trading pair written BASE-QUOTE.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair splits "VIRTUAL-USDT" into its base and quote symbols.
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "-") {
		return Pair{}, fmt.Errorf("pricing: invalid trading pair %q, want BASE-QUOTE", s)
	}
	return Pair{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}, nil
}

// MustParsePair is ParsePair for literals.
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the BASE-QUOTE form.
func (p Pair) String() string {
	return p.Base + "-" + p.Quote
}

// ExchangeSymbol returns the concatenated form used by CEX APIs (VIRTUALUSDT).
func (p Pair) ExchangeSymbol() string {
	return p.Base + p.Quote
}

// Side is the side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MarshalText encodes the pair as BASE-QUOTE.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses BASE-QUOTE.
func (p *Pair) UnmarshalText(b []byte) error {
	parsed, err := ParsePair(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
