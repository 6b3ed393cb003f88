package service

import (
	"fmt"
	"sync"

	"github.com/noah-isme/fitness-booking-api/internal/models"
)

// Catalog is the in-memory registry of classes. Reads take the shared lock so
// they always observe whole, committed records. Capacity changes are only
// reachable from the Allocator, which holds its own exclusive section around
// them.
type Catalog struct {
	mu      sync.RWMutex
	classes []models.ClassSlot
	byID    map[string]int
}

// NewCatalog builds a catalog preserving the given order.
func NewCatalog(classes []models.ClassSlot) (*Catalog, error) {
	c := &Catalog{}
	if err := c.replace(classes); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns a copy of every class in insertion order.
func (c *Catalog) List() []models.ClassSlot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ClassSlot, len(c.classes))
	copy(out, c.classes)
	return out
}

// FindByID looks a class up by identifier.
func (c *Catalog) FindByID(id string) (models.ClassSlot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return models.ClassSlot{}, false
	}
	return c.classes[idx], true
}

// Len reports the number of classes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.classes)
}

func (c *Catalog) replace(classes []models.ClassSlot) error {
	byID := make(map[string]int, len(classes))
	copied := make([]models.ClassSlot, len(classes))
	for i, class := range classes {
		if class.ID == "" {
			return fmt.Errorf("class at position %d has no id", i)
		}
		if _, dup := byID[class.ID]; dup {
			return fmt.Errorf("duplicate class id %s", class.ID)
		}
		if class.RemainingCapacity < 0 {
			return fmt.Errorf("class %s has negative remaining capacity", class.ID)
		}
		byID[class.ID] = i
		copied[i] = class
	}

	c.mu.Lock()
	c.classes = copied
	c.byID = byID
	c.mu.Unlock()
	return nil
}

// stagedAdjust returns a full copy of the catalog with delta applied to one
// class, leaving the live catalog untouched.
func (c *Catalog) stagedAdjust(id string, delta int) ([]models.ClassSlot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("class %s not in catalog", id)
	}
	if c.classes[idx].RemainingCapacity+delta < 0 {
		return nil, fmt.Errorf("class %s capacity would become negative", id)
	}
	out := make([]models.ClassSlot, len(c.classes))
	copy(out, c.classes)
	out[idx].RemainingCapacity += delta
	return out, nil
}

// adjustCapacity applies delta to the live record.
func (c *Catalog) adjustCapacity(id string, delta int) (models.ClassSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.byID[id]
	if !ok {
		return models.ClassSlot{}, fmt.Errorf("class %s not in catalog", id)
	}
	next := c.classes[idx].RemainingCapacity + delta
	if next < 0 {
		return models.ClassSlot{}, fmt.Errorf("class %s capacity would become negative", id)
	}
	c.classes[idx].RemainingCapacity = next
	return c.classes[idx], nil
}
