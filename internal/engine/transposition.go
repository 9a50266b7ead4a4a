package engine

import "github.com/hailam/tttplay/internal/board"

// Cache memoizes search scores by (board, side to move).
// Scores are stored relative to the stored node (as if it were the search root),
// so an entry is valid for every query that reaches it, at any ply.
// The state space is finite and states are immutable, so entries are never
// replaced or evicted.
type Cache struct {
	entries map[board.Key]int

	// Statistics
	hits   uint64
	probes uint64
}

// NewCache creates an empty cache sized for the reachable state count.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[board.Key]int, 6000),
	}
}

// Probe looks up a state. Returns the node-relative score and true if found.
func (c *Cache) Probe(key board.Key) (int, bool) {
	c.probes++
	score, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return score, ok
}

// Store saves the node-relative score for a state.
func (c *Cache) Store(key board.Key, score int) {
	c.entries[key] = score
}

// Size returns the number of cached states.
func (c *Cache) Size() int {
	return len(c.entries)
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	if c.probes == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.probes) * 100
}

// AdjustScoreFromCache re-bases a node-relative score to a node ply plies below
// the caller. Win and loss scores move one step toward zero per ply, draws are
// unchanged.
func AdjustScoreFromCache(score int, ply int) int {
	if score > 0 {
		return score - ply
	}
	if score < 0 {
		return score + ply
	}
	return score
}
