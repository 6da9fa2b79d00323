// Package resolver turns @mentions into full names using inline post data,
// the name cache and batched forum searches, in that order.
package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"shownames/internal/namecache"
	"shownames/internal/search"
)

// Coordinator resolves a normalized username through a batched search
type Coordinator interface {
	Resolve(ctx context.Context, username string) (string, error)
}

// SourceModel is the optional data rendered alongside a post
type SourceModel struct {
	MentionedUsers []search.User `json:"mentioned_users"`
}

// Resolver is the entry point for mention lookups
type Resolver struct {
	names       *namecache.Cache
	coordinator Coordinator
	logger      zerolog.Logger
}

// New creates a Resolver
func New(names *namecache.Cache, coordinator Coordinator, logger zerolog.Logger) *Resolver {
	return &Resolver{
		names:       names,
		coordinator: coordinator,
		logger:      logger.With().Str("component", "resolver").Logger(),
	}
}

// Normalize strips the leading @ and lower-cases the mention
func Normalize(mention string) string {
	return strings.ToLower(OriginalUsername(mention))
}

// OriginalUsername strips the leading @ but keeps the original casing
func OriginalUsername(mention string) string {
	return strings.TrimPrefix(mention, "@")
}

// Resolve returns the full name for mention, or "" if it has none.
// Inline data in source overwrites whatever is cached for that username.
func (r *Resolver) Resolve(ctx context.Context, mention string, source *SourceModel) (string, error) {
	username := Normalize(mention)
	if username == "" {
		return "", nil
	}

	r.applySource(username, source)

	if entry, ok := r.names.Get(username); ok {
		return entry.Name, nil
	}

	r.logger.Debug().Str("username", username).Msg("cache miss")
	return r.coordinator.Resolve(ctx, username)
}

// applySource caches the inline record for username, if source carries one
func (r *Resolver) applySource(username string, source *SourceModel) {
	if source == nil {
		return
	}
	for _, user := range source.MentionedUsers {
		if strings.ToLower(user.Username) == username {
			r.names.Put(username, user.Name)
			return
		}
	}
}
