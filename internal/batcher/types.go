package batcher

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"shownames/internal/search"
)

// ErrClosed is returned by Resolve after Close
var ErrClosed = errors.New("batch coordinator closed")

// Default batching parameters
const (
	DefaultWindow  = 20 * time.Millisecond
	DefaultMaxSize = 50
)

// batch is one pending or in-flight search
type batch struct {
	members map[string]struct{}
	order   []string
	timer   *time.Timer
	frozen  bool

	// set once before done is closed
	requested map[string]struct{}
	payload   *search.Response
	err       error
	done      chan struct{}
}

// newBatch creates a batch with a single member
func newBatch(username string) *batch {
	b := &batch{
		members: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	b.add(username)
	return b
}

// accepts returns true if username can wait on this batch
func (b *batch) accepts(username string, maxSize int) bool {
	if b.frozen {
		return false
	}
	if _, ok := b.members[username]; ok {
		return true
	}
	return len(b.members) < maxSize
}

// add adds username to the batch; adding an existing member is a no-op
func (b *batch) add(username string) {
	if _, ok := b.members[username]; ok {
		return
	}
	b.members[username] = struct{}{}
	b.order = append(b.order, username)
}

// freeze snapshots the members that will be searched
func (b *batch) freeze() []string {
	b.frozen = true
	list := make([]string, len(b.order))
	copy(list, b.order)
	return list
}

// complete publishes the search outcome to all waiters
func (b *batch) complete(requested []string, payload *search.Response, err error) {
	b.requested = make(map[string]struct{}, len(requested))
	for _, username := range requested {
		b.requested[username] = struct{}{}
	}
	b.payload = payload
	b.err = err
	close(b.done)
}

// included returns true if username was part of the search that was sent
func (b *batch) included(username string) bool {
	_, ok := b.requested[username]
	return ok
}

// lookup picks the full name for username out of the batch's search response
func (b *batch) lookup(username string, includeGroups bool) string {
	return pickName(b.payload, username, includeGroups)
}

// pickName finds username in a search response.
// Users win over groups; a user with an empty name falls through to groups.
func pickName(payload *search.Response, username string, includeGroups bool) string {
	if payload == nil {
		return ""
	}
	for _, user := range payload.Users {
		if strings.ToLower(user.Username) == username {
			if user.Name != "" {
				return user.Name
			}
			break
		}
	}
	if !includeGroups {
		return ""
	}
	for _, group := range payload.Groups {
		if strings.ToLower(group.Name) == username {
			return group.FullName
		}
	}
	return ""
}

// Stats holds coordinator counters
type Stats struct {
	batches   atomic.Uint64
	usernames atomic.Uint64
	failures  atomic.Uint64
	rejoins   atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Batches   uint64 `json:"batches"`
	Usernames uint64 `json:"usernames"`
	Failures  uint64 `json:"failures"`
	Rejoins   uint64 `json:"rejoins"`
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Batches:   s.batches.Load(),
		Usernames: s.usernames.Load(),
		Failures:  s.failures.Load(),
		Rejoins:   s.rejoins.Load(),
	}
}
