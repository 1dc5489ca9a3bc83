package coredb

// Config carries the two options the engine recognizes. There is no
// environment-variable binding: pageSize is mutable only through
// WithPageSize, which exists primarily as a test hook for building small
// pages in unit tests.
type Config struct {
	PageSize        int
	BufferPoolPages int
}

const (
	// DefaultPageSize is 4096 bytes, the conventional OS page size.
	DefaultPageSize = 4096
	// DefaultBufferPoolPages caps the buffer pool at 50 cached pages.
	DefaultBufferPoolPages = 50
)

// ConfigOption mutates a Config during construction.
type ConfigOption func(*Config)

// WithPageSize overrides the page size. Power-of-two sizes are
// recommended but not enforced.
func WithPageSize(size int) ConfigOption {
	return func(c *Config) { c.PageSize = size }
}

// WithBufferPoolPages overrides the buffer pool capacity.
func WithBufferPoolPages(n int) ConfigOption {
	return func(c *Config) { c.BufferPoolPages = n }
}

// NewConfig builds a Config with defaults, applying any supplied options.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		PageSize:        DefaultPageSize,
		BufferPoolPages: DefaultBufferPoolPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
