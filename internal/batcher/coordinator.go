package batcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shownames/internal/config"
	"shownames/internal/namecache"
	"shownames/internal/search"
)

// Options configures a Coordinator
type Options struct {
	Window        time.Duration
	MaxSize       int
	IncludeGroups bool
	Logger        zerolog.Logger
}

// Coordinator owns the open batch and writes search results into the name cache
type Coordinator struct {
	searcher      search.Searcher
	names         *namecache.Cache
	window        time.Duration
	maxSize       int
	includeGroups bool
	stats         Stats
	logger        zerolog.Logger

	mu     sync.Mutex
	open   *batch
	closed bool
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(searcher search.Searcher, names *namecache.Cache, opts Options) *Coordinator {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}

	return &Coordinator{
		searcher:      searcher,
		names:         names,
		window:        opts.Window,
		maxSize:       opts.MaxSize,
		includeGroups: opts.IncludeGroups,
		logger:        opts.Logger.With().Str("component", "batcher").Logger(),
	}
}

// NewCoordinatorFromConfig creates a Coordinator from config
func NewCoordinatorFromConfig(cfg *config.Config, searcher search.Searcher, names *namecache.Cache, logger zerolog.Logger) *Coordinator {
	return NewCoordinator(searcher, names, Options{
		Window:        cfg.Batching.GetWindowDuration(),
		MaxSize:       cfg.Batching.MaxSize,
		IncludeGroups: cfg.ShowFullnameForGroups,
		Logger:        logger,
	})
}

// Resolve waits for username to be searched and returns its full name, or
// "" if the forum has none. A search failure is returned to every waiter of
// the batch and nothing is cached.
func (c *Coordinator) Resolve(ctx context.Context, username string) (string, error) {
	for {
		b, err := c.join(username)
		if err != nil {
			return "", err
		}

		select {
		case <-b.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		if b.err != nil {
			return "", b.err
		}

		if !b.included(username) {
			// joined a batch whose search had already been sent without us
			c.stats.rejoins.Add(1)
			c.detach(b)
			c.logger.Debug().Str("username", username).Msg("username missed its batch, rejoining")
			continue
		}

		return b.lookup(username, c.includeGroups), nil
	}
}

// join adds username to the open batch, or opens a new one
func (c *Coordinator) join(username string) (*batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if b := c.open; b != nil && b.accepts(username, c.maxSize) {
		b.add(username)
		return b, nil
	}

	b := newBatch(username)
	c.open = b
	b.timer = time.AfterFunc(c.window, func() {
		c.dispatch(context.Background(), b)
	})
	return b, nil
}

// detach clears the open reference if it still points at b
func (c *Coordinator) detach(b *batch) {
	c.mu.Lock()
	if c.open == b {
		c.open = nil
	}
	c.mu.Unlock()
}

// dispatch freezes b and runs its search
func (c *Coordinator) dispatch(ctx context.Context, b *batch) {
	c.mu.Lock()
	if b.frozen {
		c.mu.Unlock()
		return
	}
	requested := b.freeze()
	if c.open == b {
		c.open = nil
	}
	c.mu.Unlock()

	c.stats.batches.Add(1)
	c.stats.usernames.Add(uint64(len(requested)))

	c.logger.Debug().
		Int("usernames", len(requested)).
		Bool("includeGroups", c.includeGroups).
		Msg("executing batch")

	payload, err := c.searcher.Search(ctx, search.Request{
		Usernames:     requested,
		IncludeGroups: c.includeGroups,
	})
	if err != nil {
		c.stats.failures.Add(1)
		c.logger.Warn().
			Err(err).
			Int("usernames", len(requested)).
			Msg("batch search failed")
	} else {
		// cached before waiters wake, and kept even if every waiter gave up
		for _, username := range requested {
			c.names.Put(username, pickName(payload, username, c.includeGroups))
		}
	}

	b.complete(requested, payload, err)

	c.logger.Debug().
		Int("usernames", len(requested)).
		Msg("batch completed")
}

// Stats returns a snapshot of the coordinator counters
func (c *Coordinator) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Close stops the debounce timer and dispatches the open batch right away.
// Resolve returns ErrClosed afterwards.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	c.closed = true
	b := c.open
	if b != nil && b.timer != nil && !b.timer.Stop() {
		// timer already fired, its dispatch owns the batch
		b = nil
	}
	c.mu.Unlock()

	if b != nil {
		c.dispatch(ctx, b)
	}
	c.logger.Info().Msg("batch coordinator closed")
}
