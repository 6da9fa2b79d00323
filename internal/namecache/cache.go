// Package namecache holds resolved full names keyed by normalized username.
//
// Entries are never evicted: the set of usernames seen during a process
// lifetime is bounded and every entry, including a cached absence, saves a
// search round trip.
package namecache

import "sync"

// Entry is a cached resolution. An empty Name records that the username has
// no full name (or no matching user or group).
type Entry struct {
	Name string
}

// Found returns true if the entry carries a full name
func (e Entry) Found() bool {
	return e.Name != ""
}

// Cache maps normalized usernames to entries
type Cache struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// New creates an empty cache
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the entry for username and whether one exists
func (c *Cache) Get(username string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[username]
	return entry, ok
}

// Put overwrites the entry for username. An empty name stores an absence.
func (c *Cache) Put(username, name string) {
	c.mu.Lock()
	c.entries[username] = Entry{Name: name}
	c.mu.Unlock()
}

// Has returns true if username has an entry, absent or not
func (c *Cache) Has(username string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[username]
	return ok
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
