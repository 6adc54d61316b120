package economy

import (
	"testing"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateNoble(t *testing.T) {
	t.Parallel()
	noble := domain.Noble{ID: "scholar", Requirement: domain.Gems{Ruby: 3, Sapphire: 4}, Prestige: 3}

	testCases := []struct {
		name      string
		discounts domain.Gems
		overall   float64
		completed bool
	}{
		{"nothing yet", domain.Gems{}, 0, false},
		{"partial", domain.Gems{Ruby: 3, Sapphire: 2}, 0.5, false},
		{"exactly met", domain.Gems{Ruby: 3, Sapphire: 4}, 1, true},
		{"exceeded", domain.Gems{Ruby: 9, Sapphire: 9, Diamond: 2}, 1, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := EvaluateNoble(noble, tc.discounts)
			assert.InDelta(t, tc.overall, p.Overall, 1e-9)
			assert.Equal(t, tc.completed, p.Completed)
			// currencies the noble does not ask for are always complete
			assert.Equal(t, 1.0, p.PerGem[domain.GemEmerald])
			assert.Equal(t, 1.0, p.PerGem[domain.GemDiamond])
			for _, ratio := range p.PerGem {
				assert.LessOrEqual(t, ratio, 1.0)
			}
		})
	}
}

func TestEvaluateNoblesMarksClaimed(t *testing.T) {
	t.Parallel()
	nobles := []domain.Noble{
		{ID: "a", Requirement: domain.Gems{Ruby: 1}},
		{ID: "b", Requirement: domain.Gems{Diamond: 1}},
	}
	out := EvaluateNobles(nobles, domain.Gems{Ruby: 1}, map[string]bool{"a": true})
	assert.Len(t, out, 2)
	assert.True(t, out[0].Completed)
	assert.True(t, out[0].Claimed)
	assert.False(t, out[1].Completed)
	assert.False(t, out[1].Claimed)
}
