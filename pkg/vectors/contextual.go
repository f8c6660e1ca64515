package vectors

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
)

// reservedContextSlots is the number of trailing contextual slots holding
// emotional charge, distinctiveness and tag count.
const reservedContextSlots = 3

// SlotStrategy selects how a tag is mapped to a contextual slot.
type SlotStrategy string

const (
	// SlotSequential gives each first-seen tag the next slot. The table lives
	// only as long as the generator, so vectors built by different processes
	// do not share slot meanings.
	SlotSequential SlotStrategy = "sequential"

	// SlotHash derives the slot from an FNV-1a hash of the tag, which is
	// stable across restarts at the cost of collisions.
	SlotHash SlotStrategy = "hash"
)

// ParseSlotStrategy converts a strategy name. Empty means SlotSequential.
func ParseSlotStrategy(name string) (SlotStrategy, error) {
	switch SlotStrategy(strings.ToLower(name)) {
	case "", SlotSequential:
		return SlotSequential, nil
	case SlotHash:
		return SlotHash, nil
	}
	return "", fmt.Errorf("unknown tag slot strategy %q", name)
}

// ContextualGenerator encodes tags and affect features.
//
// Layout for dimension D:
//
//	[0, D-3)  one slot per tag, set to 1.0
//	D-3       emotional charge
//	D-2       distinctiveness
//	D-1       tag count / 10
//
// It is safe for concurrent use.
type ContextualGenerator struct {
	dimension int
	strategy  SlotStrategy

	mu    sync.Mutex
	slots map[string]int
	next  int
}

// NewContextualGenerator creates a contextual generator with its own tag table.
func NewContextualGenerator(dimension int, strategy SlotStrategy) *ContextualGenerator {
	if strategy == "" {
		strategy = SlotSequential
	}
	return &ContextualGenerator{
		dimension: dimension,
		strategy:  strategy,
		slots:     make(map[string]int),
	}
}

// Dimension returns the output length.
func (g *ContextualGenerator) Dimension() int {
	return g.dimension
}

// Generate encodes the tags together with the affect features.
// Duplicate tags are counted once and new tags claim slots in sorted order.
func (g *ContextualGenerator) Generate(tags []string, emotionalCharge, distinctiveness float64) []float64 {
	out := make([]float64, g.dimension)
	tagSlots := g.dimension - reservedContextSlots
	if tagSlots <= 0 {
		return out
	}

	unique := UniqueTags(tags)
	for _, tag := range unique {
		out[g.slotFor(tag, tagSlots)] = 1.0
	}

	out[g.dimension-3] = clamp01(emotionalCharge)
	out[g.dimension-2] = clamp01(distinctiveness)
	out[g.dimension-1] = clamp01(float64(len(unique)) / 10.0)
	return out
}

// Slot reports the slot assigned to tag and whether it has been seen.
func (g *ContextualGenerator) Slot(tag string) (int, bool) {
	if g.strategy == SlotHash {
		return hashSlot(tag, g.dimension-reservedContextSlots), true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.slots[tag]
	return slot, ok
}

func (g *ContextualGenerator) slotFor(tag string, tagSlots int) int {
	if g.strategy == SlotHash {
		return hashSlot(tag, tagSlots)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if slot, ok := g.slots[tag]; ok {
		return slot
	}
	slot := g.next % tagSlots
	g.slots[tag] = slot
	g.next++
	return slot
}

func hashSlot(tag string, tagSlots int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tag))
	return int(h.Sum64() % uint64(tagSlots))
}

// UniqueTags collapses duplicate tags and sorts them, so sequential slot
// claims do not depend on the order a caller listed the tags in.
func UniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
