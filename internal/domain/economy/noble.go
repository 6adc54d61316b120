package economy

import "github.com/phrazzld/studyquest/internal/domain"

// NobleProgress reports how close a discount profile is to a noble.
type NobleProgress struct {
	Noble domain.Noble `json:"noble"`
	// PerGem holds the progress ratio in [0,1] for each currency. Currencies
	// the noble does not require count as complete.
	PerGem    map[domain.Gem]float64 `json:"per_gem"`
	Overall   float64                `json:"overall"`
	Completed bool                   `json:"completed"`
	Claimed   bool                   `json:"claimed"`
}

// EvaluateNoble compares the discount profile against the noble's requirement.
func EvaluateNoble(n domain.Noble, discounts domain.Gems) NobleProgress {
	p := NobleProgress{
		Noble:     n,
		PerGem:    make(map[domain.Gem]float64, len(domain.AllGems)),
		Overall:   1,
		Completed: true,
	}
	for _, g := range domain.AllGems {
		target := n.Requirement.Get(g)
		ratio := 1.0
		if target > 0 {
			ratio = float64(discounts.Get(g)) / float64(target)
			if ratio > 1 {
				ratio = 1
			}
			if discounts.Get(g) < target {
				p.Completed = false
			}
		}
		p.PerGem[g] = ratio
		if ratio < p.Overall {
			p.Overall = ratio
		}
	}
	return p
}

// EvaluateNobles evaluates every noble against the same discount profile,
// marking those present in claimed.
func EvaluateNobles(nobles []domain.Noble, discounts domain.Gems, claimed map[string]bool) []NobleProgress {
	out := make([]NobleProgress, 0, len(nobles))
	for _, n := range nobles {
		p := EvaluateNoble(n, discounts)
		p.Claimed = claimed[n.ID]
		out = append(out, p)
	}
	return out
}
