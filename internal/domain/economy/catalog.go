package economy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/studyquest/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("invalid economy catalog")

// PrestigeRules controls the prestige credited per purchase.
type PrestigeRules struct {
	Purchase int `yaml:"purchase"`
	// HardBonus is added when the purchased topic's difficulty is high.
	HardBonus int `yaml:"hard_bonus"`
}

// For returns the prestige earned by purchasing a topic of the given difficulty.
func (r PrestigeRules) For(difficulty domain.Level) int {
	if difficulty == domain.LevelHigh {
		return r.Purchase + r.HardBonus
	}
	return r.Purchase
}

// Catalog is the static economy configuration.
type Catalog struct {
	CostTable CostTable      `yaml:"cost_table"`
	Prestige  PrestigeRules  `yaml:"prestige"`
	Nobles    []domain.Noble `yaml:"nobles"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog from path, or returns the embedded default
// when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read economy catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the cost table, prestige rules and nobles.
func (c *Catalog) Validate() error {
	if err := c.CostTable.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if c.Prestige.Purchase < 0 || c.Prestige.HardBonus < 0 {
		return fmt.Errorf("%w: prestige amounts must not be negative", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c.Nobles))
	for _, n := range c.Nobles {
		if n.ID == "" {
			return fmt.Errorf("%w: noble without id", ErrInvalidCatalog)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate noble %q", ErrInvalidCatalog, n.ID)
		}
		seen[n.ID] = true
		if n.Requirement.IsNegative() || n.Requirement.Total() == 0 {
			return fmt.Errorf("%w: noble %q needs a positive requirement", ErrInvalidCatalog, n.ID)
		}
		if n.Prestige < 0 {
			return fmt.Errorf("%w: noble %q has negative prestige", ErrInvalidCatalog, n.ID)
		}
	}
	return nil
}

// BaseCost prices a topic with the catalog's cost table.
func (c *Catalog) BaseCost(t *domain.Topic) domain.Gems {
	return c.CostTable.BaseCost(t.Difficulty, t.Importance)
}
