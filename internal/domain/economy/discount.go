package economy

import "github.com/phrazzld/studyquest/internal/domain"

// DiscountsFrom counts purchased topics per discount currency. Each
// purchased topic contributes one unit to the currency of its subject.
func DiscountsFrom(purchased []domain.Gem) domain.Gems {
	var d domain.Gems
	for _, g := range purchased {
		if !g.Valid() {
			continue
		}
		d = d.With(g, d.Get(g)+1)
	}
	return d
}

// EffectiveCost is the base cost reduced by the discount, floored at zero
// in every currency.
func EffectiveCost(base, discount domain.Gems) domain.Gems {
	return base.Sub(discount).ClampZero()
}

// CanAfford reports whether the balance covers the cost in every currency.
func CanAfford(balance, cost domain.Gems) bool {
	return balance.Covers(cost)
}

// Quote is a fully computed price for a topic against a wallet.
type Quote struct {
	Base       domain.Gems  `json:"base"`
	Discount   domain.Gems  `json:"discount"`
	Effective  domain.Gems  `json:"effective"`
	Balance    domain.Gems  `json:"balance"`
	Affordable bool         `json:"affordable"`
	Short      []domain.Gem `json:"short,omitempty"`
}

// NewQuote prices a base cost against a discount profile and balance.
func NewQuote(base, discount, balance domain.Gems) Quote {
	eff := EffectiveCost(base, discount)
	short := balance.Shortfall(eff)
	return Quote{
		Base:       base,
		Discount:   discount,
		Effective:  eff,
		Balance:    balance,
		Affordable: len(short) == 0,
		Short:      short,
	}
}
