package search

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a search
var ErrCircuitOpen = errors.New("search circuit breaker is open")

// Path is the forum endpoint used to look up users and groups by name
const Path = "/u/search/users.json"

// Request is a single user search
type Request struct {
	Usernames     []string
	IncludeGroups bool
}

// User is a matched user record
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Group is a matched group record
type Group struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// Response is the decoded search payload
type Response struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
}

// Searcher runs user searches. Client is the HTTP implementation.
type Searcher interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// Stats holds search counters
type Stats struct {
	requests atomic.Uint64
	failures atomic.Uint64
}

// IncrementRequestCount increments the request counter
func (s *Stats) IncrementRequestCount() {
	s.requests.Add(1)
}

// IncrementFailureCount increments the failure counter
func (s *Stats) IncrementFailureCount() {
	s.failures.Add(1)
}

// SwapRequestCount returns the current request count and resets it to zero
func (s *Stats) SwapRequestCount() uint64 {
	return s.requests.Swap(0)
}

// SwapFailureCount returns the current failure count and resets it to zero
func (s *Stats) SwapFailureCount() uint64 {
	return s.failures.Swap(0)
}
