// Package matchcache memoizes the fixture grouper's pairwise team-name
// comparisons so its O(sources^2) candidate scan doesn't recompute the
// same (teamA, teamB) decision on every cycle, and collapses
// concurrent callers asking about the same pair at once using
// golang.org/x/sync/singleflight guarding a mutex-protected cache.
package matchcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Matcher is the subset of matching.Matcher's surface this cache
// memoizes.
type Matcher interface {
	TeamsMatch(t1, t2 string) bool
	CheckTeamSynonyms(t1, t2 string) bool
	JaccardScore(name1, name2 string) float64
}

// Cache wraps a Matcher, memoizing each of its three pairwise
// comparisons independently since callers mix and match them.
type Cache struct {
	inner Matcher

	sfMatch, sfSynonym, sfJaccard singleflight.Group

	mu       sync.RWMutex
	match    map[string]bool
	synonym  map[string]bool
	jaccard  map[string]float64
}

func New(inner Matcher) *Cache {
	return &Cache{
		inner:   inner,
		match:   make(map[string]bool),
		synonym: make(map[string]bool),
		jaccard: make(map[string]float64),
	}
}

func (c *Cache) TeamsMatch(t1, t2 string) bool {
	key := pairKey(t1, t2)
	c.mu.RLock()
	v, ok := c.match[key]
	c.mu.RUnlock()
	if ok {
		return v
	}
	result, _, _ := c.sfMatch.Do(key, func() (any, error) {
		v := c.inner.TeamsMatch(t1, t2)
		c.mu.Lock()
		c.match[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return result.(bool)
}

func (c *Cache) CheckTeamSynonyms(t1, t2 string) bool {
	key := pairKey(t1, t2)
	c.mu.RLock()
	v, ok := c.synonym[key]
	c.mu.RUnlock()
	if ok {
		return v
	}
	result, _, _ := c.sfSynonym.Do(key, func() (any, error) {
		v := c.inner.CheckTeamSynonyms(t1, t2)
		c.mu.Lock()
		c.synonym[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return result.(bool)
}

func (c *Cache) JaccardScore(name1, name2 string) float64 {
	key := pairKey(name1, name2)
	c.mu.RLock()
	v, ok := c.jaccard[key]
	c.mu.RUnlock()
	if ok {
		return v
	}
	result, _, _ := c.sfJaccard.Do(key, func() (any, error) {
		v := c.inner.JaccardScore(name1, name2)
		c.mu.Lock()
		c.jaccard[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return result.(float64)
}

// Reset clears every memo, for callers that want a fresh cache between
// sports/modes rather than across the whole process lifetime.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.match = make(map[string]bool)
	c.synonym = make(map[string]bool)
	c.jaccard = make(map[string]float64)
}

// pairKey is order-independent: TeamsMatch/CheckTeamSynonyms/JaccardScore
// are all symmetric in their two arguments.
func pairKey(t1, t2 string) string {
	if t1 <= t2 {
		return t1 + "\x1f" + t2
	}
	return t2 + "\x1f" + t1
}
