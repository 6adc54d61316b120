package economy

import (
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
)

// discountCache memoises discount profiles per user. Each invalidation bumps
// the user's generation; a value read before the bump is never stored.
type discountCache struct {
	mu          sync.Mutex
	values      map[uuid.UUID]domain.Gems
	generations map[uuid.UUID]uint64
}

func newDiscountCache() *discountCache {
	return &discountCache{
		values:      make(map[uuid.UUID]domain.Gems),
		generations: make(map[uuid.UUID]uint64),
	}
}

// get returns the cached profile and, on a miss, the generation to pass to put.
func (c *discountCache) get(userID uuid.UUID) (domain.Gems, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[userID]
	return v, c.generations[userID], ok
}

func (c *discountCache) put(userID uuid.UUID, generation uint64, v domain.Gems) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != generation {
		return
	}
	c.values[userID] = v
}

func (c *discountCache) invalidate(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, userID)
	c.generations[userID]++
}
