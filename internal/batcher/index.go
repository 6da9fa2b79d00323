package batcher

// Package batcher coalesces username lookups into batched user searches.
//
// The first lookup with no open batch creates one and arms a short debounce
// timer. Lookups arriving while the batch is open join it, up to the size
// ceiling. When the timer fires the member list is frozen, the batch stops
// accepting joiners, and a single search is issued for all members. Every
// waiter receives the same frozen list and search response and picks its own
// result out of it.
//
// Example configuration:
//
//	{
//	  "batching": {
//	    "window": 20,
//	    "maxSize": 50
//	  }
//	}
