package multiform

import (
	"net/textproto"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultHeaderCacheSize is the capacity used when a HeaderCache is created
// with a non-positive capacity.
const DefaultHeaderCacheSize = 500

// HeaderField is a single extra part header. Extra headers are written in the
// order given.
type HeaderField struct {
	Key   string
	Value string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// HeaderCache memoizes rendered part header blocks.
//
// A HeaderCache is safe for concurrent use. The returned blocks are shared
// between callers and must not be modified.
type HeaderCache struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries *lru[string, []byte]
}

// NewHeaderCache returns a cache holding at most capacity header blocks.
func NewHeaderCache(capacity int, logger *zap.Logger) *HeaderCache {
	if capacity <= 0 {
		capacity = DefaultHeaderCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &HeaderCache{
		logger:  logger,
		entries: newLRU[string, []byte](capacity),
	}
	c.entries.onEvict = func(_ string, _ []byte) {
		GetMetrics().cacheEvictions.WithLabelValues(cacheHeader).Inc()
		c.logger.Debug("header cache evicted")
	}
	return c
}

// Render returns the header block written before a part's payload, including
// the blank line that terminates it. An empty filename omits the filename
// parameter and an empty contentType omits the Content-Type line.
func (c *HeaderCache) Render(name, filename, contentType string, extra []HeaderField) []byte {
	key := headerKey(name, filename, contentType, extra)

	c.mu.Lock()
	defer c.mu.Unlock()

	if block, ok := c.entries.get(key); ok {
		GetMetrics().cacheHits.WithLabelValues(cacheHeader).Inc()
		return block
	}
	GetMetrics().cacheMisses.WithLabelValues(cacheHeader).Inc()

	block := renderHeader(name, filename, contentType, extra)
	c.entries.add(key, block)
	GetMetrics().cacheSize.WithLabelValues(cacheHeader).Set(float64(c.entries.len()))
	return block
}

// Len returns the number of cached header blocks.
func (c *HeaderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// headerKey length-prefixes every component so that distinct tuples never
// share a key.
func headerKey(name, filename, contentType string, extra []HeaderField) string {
	var b strings.Builder
	write := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	write(name)
	write(filename)
	write(contentType)
	for _, h := range extra {
		write(h.Key)
		write(h.Value)
	}
	return b.String()
}

func renderHeader(name, filename, contentType string, extra []HeaderField) []byte {
	disposition := `form-data; name="` + escapeQuotes(name) + `"`
	if filename != "" {
		disposition += `; filename="` + escapeQuotes(filename) + `"`
	}

	// Extra Content-Disposition and Content-Type headers replace the generated
	// lines.
	var rest []HeaderField
	for _, h := range extra {
		switch textproto.CanonicalMIMEHeaderKey(h.Key) {
		case "Content-Disposition":
			disposition = h.Value
		case "Content-Type":
			contentType = h.Value
		default:
			rest = append(rest, h)
		}
	}

	var b strings.Builder
	b.WriteString("Content-Disposition: ")
	b.WriteString(disposition)
	b.WriteString("\r\n")
	if contentType != "" {
		b.WriteString("Content-Type: ")
		b.WriteString(contentType)
		b.WriteString("\r\n")
	}
	for _, h := range rest {
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
