package driven

import "time"

// ConfigStore holds settings under flattened dot keys such as
// "providers.govinfo.api_key" or "cache.ttl". Typed getters return the
// zero value for a missing key or a value of the wrong shape, so callers
// layer their own defaults on top.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetDuration accepts Go duration strings ("8s") and whole seconds.
	GetDuration(key string) time.Duration

	GetStringSlice(key string) []string

	// Set stores a value. Persistent stores write through immediately.
	Set(key string, value any) error

	// Save writes every value to the backing file, if any.
	Save() error

	// Load replaces the values with the backing file's contents.
	Load() error

	// Path names the backing file, or ":memory:".
	Path() string
}
