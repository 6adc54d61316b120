package domain

import "fmt"

// Gem names one of the four wallet currencies.
type Gem string

const (
	GemRuby     Gem = "ruby"
	GemSapphire Gem = "sapphire"
	GemEmerald  Gem = "emerald"
	GemDiamond  Gem = "diamond"
)

// AllGems lists the currencies in their canonical order.
var AllGems = []Gem{GemRuby, GemSapphire, GemEmerald, GemDiamond}

// Valid reports whether g is one of the four currencies.
func (g Gem) Valid() bool {
	switch g {
	case GemRuby, GemSapphire, GemEmerald, GemDiamond:
		return true
	}
	return false
}

// ParseGem converts a string into a Gem.
func ParseGem(s string) (Gem, error) {
	g := Gem(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGem, s)
	}
	return g, nil
}

// Gems is an amount per currency. It is used for balances, costs and
// discount profiles alike.
type Gems struct {
	Ruby     int `json:"ruby" yaml:"ruby" db:"ruby"`
	Sapphire int `json:"sapphire" yaml:"sapphire" db:"sapphire"`
	Emerald  int `json:"emerald" yaml:"emerald" db:"emerald"`
	Diamond  int `json:"diamond" yaml:"diamond" db:"diamond"`
}

// Get returns the amount held in currency g.
func (a Gems) Get(g Gem) int {
	switch g {
	case GemRuby:
		return a.Ruby
	case GemSapphire:
		return a.Sapphire
	case GemEmerald:
		return a.Emerald
	case GemDiamond:
		return a.Diamond
	}
	return 0
}

// With returns a copy of a with currency g set to n.
func (a Gems) With(g Gem, n int) Gems {
	switch g {
	case GemRuby:
		a.Ruby = n
	case GemSapphire:
		a.Sapphire = n
	case GemEmerald:
		a.Emerald = n
	case GemDiamond:
		a.Diamond = n
	}
	return a
}

// Add returns the component-wise sum.
func (a Gems) Add(b Gems) Gems {
	return Gems{
		Ruby:     a.Ruby + b.Ruby,
		Sapphire: a.Sapphire + b.Sapphire,
		Emerald:  a.Emerald + b.Emerald,
		Diamond:  a.Diamond + b.Diamond,
	}
}

// Sub returns the component-wise difference. The result may be negative.
func (a Gems) Sub(b Gems) Gems {
	return Gems{
		Ruby:     a.Ruby - b.Ruby,
		Sapphire: a.Sapphire - b.Sapphire,
		Emerald:  a.Emerald - b.Emerald,
		Diamond:  a.Diamond - b.Diamond,
	}
}

// ClampZero floors every component at zero.
func (a Gems) ClampZero() Gems {
	for _, g := range AllGems {
		if a.Get(g) < 0 {
			a = a.With(g, 0)
		}
	}
	return a
}

// Covers reports whether a holds at least b in every currency.
func (a Gems) Covers(b Gems) bool {
	return len(a.Shortfall(b)) == 0
}

// Shortfall lists the currencies in which a holds less than b.
func (a Gems) Shortfall(b Gems) []Gem {
	var short []Gem
	for _, g := range AllGems {
		if a.Get(g) < b.Get(g) {
			short = append(short, g)
		}
	}
	return short
}

// Total sums every currency.
func (a Gems) Total() int {
	return a.Ruby + a.Sapphire + a.Emerald + a.Diamond
}

// IsNegative reports whether any component is below zero.
func (a Gems) IsNegative() bool {
	return a.Ruby < 0 || a.Sapphire < 0 || a.Emerald < 0 || a.Diamond < 0
}

// LessOrEqual reports whether every component of a is at most the matching component of b.
func (a Gems) LessOrEqual(b Gems) bool {
	return b.Covers(a)
}
