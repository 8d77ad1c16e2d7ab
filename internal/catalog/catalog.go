// Package catalog holds the learning-module catalog: the difficulty and base
// reward of every module a learner can complete.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// Module is one learning module.
type Module struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	MICReward        int      `json:"micReward"`
	Topics           []string `json:"topics"`
	QuestionCount    int      `json:"questionCount"`
}

//go:embed modules.json
var defaultModules []byte

// Catalog is a read-only, ordered set of modules.
type Catalog struct {
	modules []Module
	byID    map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultModules)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded modules: %v", err))
	}
	return c
}

// Parse builds a catalog from a JSON array of modules.
func Parse(data []byte) (*Catalog, error) {
	var mods []Module
	if err := json.Unmarshal(data, &mods); err != nil {
		return nil, fmt.Errorf("decode modules: %w", err)
	}
	return New(mods)
}

// New builds a catalog, rejecting duplicate or empty ids and negative rewards.
func New(mods []Module) (*Catalog, error) {
	c := &Catalog{modules: make([]Module, 0, len(mods)), byID: make(map[string]int, len(mods))}
	for _, m := range mods {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: module with empty id", models.ErrInvalidInput)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate module id %q", models.ErrInvalidInput, m.ID)
		}
		if m.MICReward < 0 {
			return nil, fmt.Errorf("%w: module %q has negative reward", models.ErrInvalidInput, m.ID)
		}
		c.byID[m.ID] = len(c.modules)
		c.modules = append(c.modules, m)
	}
	return c, nil
}

// Get returns the module with id.
func (c *Catalog) Get(id string) (Module, error) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, fmt.Errorf("%w: module %q", models.ErrNotFound, id)
	}
	return c.modules[i], nil
}

// List returns modules in catalog order, filtered by difficulty when it is
// non-empty.
func (c *Catalog) List(difficulty string) []Module {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	out := make([]Module, 0, len(c.modules))
	for _, m := range c.modules {
		if difficulty != "" && m.Difficulty != difficulty {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len is the number of modules.
func (c *Catalog) Len() int { return len(c.modules) }
