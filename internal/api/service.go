package api

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"shownames/internal/cache"
	"shownames/internal/decorator"
	"shownames/internal/resolver"
	"shownames/internal/search"
)

// ErrUsernameRequired is returned when a resolve request names nobody
var ErrUsernameRequired = errors.New("username is required")

// DecorateParams is the body of a decorate request
type DecorateParams struct {
	Cooked         string        `json:"cooked"`
	MentionedUsers []search.User `json:"mentioned_users,omitempty"`
}

// CookedResult carries rewritten post HTML
type CookedResult struct {
	Cooked string `json:"cooked"`
}

// RestoreParams is the body of a restore request
type RestoreParams struct {
	Cooked string `json:"cooked"`
}

// ResolveParams is the body of a resolve request
type ResolveParams struct {
	Username string `json:"username"`
}

// ResolveResult is the outcome of a single lookup
type ResolveResult struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Found    bool   `json:"found"`
}

// CardUsernamesResult lists the user card targets of a post
type CardUsernamesResult struct {
	Usernames []string `json:"usernames"`
}

// Service implements the mention operations shared by the HTTP and WebSocket endpoints
type Service struct {
	decorator *decorator.Decorator
	resolver  *resolver.Resolver
	cache     cache.Cache
	logger    zerolog.Logger
}

// NewService creates a new Service
func NewService(d *decorator.Decorator, r *resolver.Resolver, renderCache cache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		decorator: d,
		resolver:  r,
		cache:     renderCache,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Decorate rewrites the mentions of one post
func (s *Service) Decorate(ctx context.Context, params DecorateParams) (*CookedResult, error) {
	var source *resolver.SourceModel
	if len(params.MentionedUsers) > 0 {
		source = &resolver.SourceModel{MentionedUsers: params.MentionedUsers}
	}

	key := cache.GenerateKey(params.Cooked, source)
	if cooked, found := s.cache.Get(key); found {
		s.logger.Debug().Str("cacheKey", key).Msg("cache hit")
		return &CookedResult{Cooked: cooked}, nil
	}

	result, err := s.decorator.DecorateResult(ctx, params.Cooked, source)
	if err != nil {
		return nil, err
	}

	// a failed lookup must be retried by the next request
	if result.Failed == 0 && result.Cooked != params.Cooked {
		s.cache.Set(key, result.Cooked)
	} else if result.Failed > 0 {
		s.logger.Debug().
			Int("failed", result.Failed).
			Msg("skipping cache for partially decorated post")
	}
	return &CookedResult{Cooked: result.Cooked}, nil
}

// Restore reverts decorated mentions to their original text
func (s *Service) Restore(ctx context.Context, params RestoreParams) (*CookedResult, error) {
	cooked, err := decorator.Restore(params.Cooked)
	if err != nil {
		return nil, err
	}
	return &CookedResult{Cooked: cooked}, nil
}

// Resolve looks up a single username
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (*ResolveResult, error) {
	if resolver.Normalize(params.Username) == "" {
		return nil, ErrUsernameRequired
	}
	name, err := s.resolver.Resolve(ctx, params.Username, nil)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{
		Username: resolver.Normalize(params.Username),
		Name:     name,
		Found:    name != "",
	}, nil
}

// CardUsernames lists the usernames user cards should open for a post's mentions
func (s *Service) CardUsernames(ctx context.Context, params RestoreParams) (*CardUsernamesResult, error) {
	usernames, err := s.decorator.CardUsernames(params.Cooked)
	if err != nil {
		return nil, err
	}
	return &CardUsernamesResult{Usernames: usernames}, nil
}
