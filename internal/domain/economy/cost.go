// Package economy implements the pure gem economy rules: the cost of a
// topic, the discount profile earned from purchases, affordability and
// noble milestones. Nothing in this package touches storage.
package economy

import (
	"fmt"

	"github.com/phrazzld/studyquest/internal/domain"
)

const (
	minWeightSum = 2
	maxWeightSum = 6
	tierCount    = maxWeightSum - minWeightSum + 1

	// defaultWeight applies to difficulty or importance values outside the known levels.
	defaultWeight = 2
)

// CostTable maps a topic's difficulty and importance to a base cost.
type CostTable struct {
	Weights map[domain.Level]int `yaml:"weights"`
	// Tiers holds the cost for weight sums 2 through 6, lowest first.
	Tiers []domain.Gems `yaml:"tiers"`
}

// DefaultCostTable returns the built-in cost table.
func DefaultCostTable() CostTable {
	return CostTable{
		Weights: map[domain.Level]int{
			domain.LevelLow:    1,
			domain.LevelMedium: 2,
			domain.LevelHigh:   3,
		},
		Tiers: []domain.Gems{
			{Ruby: 1},
			{Ruby: 1, Sapphire: 1},
			{Ruby: 2, Sapphire: 1, Emerald: 1},
			{Ruby: 2, Sapphire: 2, Emerald: 1, Diamond: 1},
			{Ruby: 3, Sapphire: 2, Emerald: 2, Diamond: 2},
		},
	}
}

// Weight returns the weight for a level, defaulting to 2 for unknown values.
func (c CostTable) Weight(l domain.Level) int {
	if w, ok := c.Weights[l]; ok {
		return w
	}
	return defaultWeight
}

// BaseCost returns the undiscounted cost of a topic.
func (c CostTable) BaseCost(difficulty, importance domain.Level) domain.Gems {
	sum := c.Weight(difficulty) + c.Weight(importance)
	if sum < minWeightSum {
		sum = minWeightSum
	}
	if sum > maxWeightSum {
		sum = maxWeightSum
	}
	return c.Tiers[sum-minWeightSum]
}

// Validate checks that the table is complete and that costs never decrease
// as the weight sum grows.
func (c CostTable) Validate() error {
	if len(c.Tiers) != tierCount {
		return fmt.Errorf("cost table must have %d tiers, got %d", tierCount, len(c.Tiers))
	}
	for _, l := range []domain.Level{domain.LevelLow, domain.LevelMedium, domain.LevelHigh} {
		w, ok := c.Weights[l]
		if !ok {
			return fmt.Errorf("cost table is missing a weight for %q", l)
		}
		if w < 1 || w > 3 {
			return fmt.Errorf("weight for %q must be between 1 and 3, got %d", l, w)
		}
	}
	if c.Weights[domain.LevelLow] > c.Weights[domain.LevelMedium] ||
		c.Weights[domain.LevelMedium] > c.Weights[domain.LevelHigh] {
		return fmt.Errorf("weights must not decrease from low to high")
	}
	for i, tier := range c.Tiers {
		if tier.IsNegative() {
			return fmt.Errorf("tier %d has a negative amount", i)
		}
		if i > 0 && !c.Tiers[i-1].LessOrEqual(tier) {
			return fmt.Errorf("tier %d costs less than tier %d", i, i-1)
		}
	}
	return nil
}
