package cache

// Cache stores decorated post HTML keyed by the request that produced it.
// The name cache is separate; this only saves re-parsing identical posts.
type Cache interface {
	// Get retrieves decorated HTML by key
	Get(key string) (string, bool)

	// Set stores decorated HTML under key
	Set(key string, value string)

	// Close releases any resources held by the cache
	Close()
}
