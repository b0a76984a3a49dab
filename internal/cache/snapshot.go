// Package cache keeps recent account snapshots in memory.
//
// golang-lru evicts the least recently used filter once the cache is full.
package cache

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/samber/lo"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// AllNetworks is the key of an unfiltered snapshot.
const AllNetworks = "*"

type SnapshotCache struct {
	entries *lru.Cache
}

// New sets up an LRU cache holding at most size snapshots.
func New(size int) (*SnapshotCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &SnapshotCache{entries: entries}, nil
}

// Key derives the cache key of a network filter. Filters with the same ids
// share a key regardless of insertion order.
func Key(filter map[string]struct{}) string {
	if len(filter) == 0 {
		return AllNetworks
	}
	ids := lo.Keys(filter)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Put stores snap under filter. A nil snapshot is ignored.
func (c *SnapshotCache) Put(filter map[string]struct{}, snap *models.AccountSnapshot) {
	if snap == nil {
		return
	}
	c.entries.Add(Key(filter), snap)
}

func (c *SnapshotCache) Get(filter map[string]struct{}) (*models.AccountSnapshot, bool) {
	v, ok := c.entries.Get(Key(filter))
	if !ok {
		return nil, false
	}
	snap, ok := v.(*models.AccountSnapshot)
	return snap, ok
}

func (c *SnapshotCache) Len() int {
	return c.entries.Len()
}
