// Package catalogue supplies the static reference data of tracked protocols.
// The round ledger reads it when a round is created and never writes it.
package catalogue

import (
	"fmt"
	"os"
	"strings"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"gopkg.in/yaml.v3"
)

// Catalogue is an ordered, read-only set of candidates.
type Catalogue struct {
	items []domain.Candidate
	byID  map[string]int
}

// file is the on-disk YAML layout.
type file struct {
	Protocols []domain.Candidate `yaml:"protocols"`
}

// New builds a catalogue, rejecting empty or duplicate ids.
func New(items []domain.Candidate) (*Catalogue, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalogue.New: no protocols")
	}
	c := &Catalogue{
		items: make([]domain.Candidate, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			return nil, fmt.Errorf("catalogue.New: protocol %q has no id", it.Name)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("catalogue.New: duplicate protocol id %q", it.ID)
		}
		if it.Name == "" {
			it.Name = it.ID
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Load reads a catalogue from a YAML file.  An empty path yields Default().
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalogue.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document with a top-level "protocols" list.
func Parse(data []byte) (*Catalogue, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalogue.Parse: %w", err)
	}
	return New(f.Protocols)
}

// All returns a copy of the candidates in catalogue order.
func (c *Catalogue) All() []domain.Candidate {
	out := make([]domain.Candidate, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns candidate ids in catalogue order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID
	}
	return ids
}

// Get looks a candidate up by id.
func (c *Catalogue) Get(id string) (domain.Candidate, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Candidate{}, false
	}
	return c.items[i], true
}

// Name returns the display name for id; the second value is false for
// unknown ids.
func (c *Catalogue) Name(id string) (string, bool) {
	it, ok := c.Get(id)
	return it.Name, ok
}

// Len returns the number of tracked protocols.
func (c *Catalogue) Len() int {
	return len(c.items)
}
