package multiform

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultContentType is used for binary payloads whose type is unknown.
const DefaultContentType = "application/octet-stream"

// DefaultMIMECacheSize is the capacity used when a MIMECache is created with a
// non-positive capacity.
const DefaultMIMECacheSize = 100

// mimeTypes maps lower-case extensions to their content type.
var mimeTypes = map[string]string{
	"7z":    "application/x-7z-compressed",
	"aac":   "audio/aac",
	"avif":  "image/avif",
	"bin":   "application/octet-stream",
	"bmp":   "image/bmp",
	"bz2":   "application/x-bzip2",
	"css":   "text/css",
	"csv":   "text/csv",
	"doc":   "application/msword",
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"eot":   "application/vnd.ms-fontobject",
	"epub":  "application/epub+zip",
	"flac":  "audio/flac",
	"gif":   "image/gif",
	"gz":    "application/gzip",
	"heic":  "image/heic",
	"htm":   "text/html",
	"html":  "text/html",
	"ico":   "image/vnd.microsoft.icon",
	"ics":   "text/calendar",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"js":    "text/javascript",
	"json":  "application/json",
	"jsonl": "application/jsonl",
	"m4a":   "audio/mp4",
	"md":    "text/markdown",
	"mjs":   "text/javascript",
	"mov":   "video/quicktime",
	"mp3":   "audio/mpeg",
	"mp4":   "video/mp4",
	"mpeg":  "video/mpeg",
	"oga":   "audio/ogg",
	"ogg":   "audio/ogg",
	"ogv":   "video/ogg",
	"otf":   "font/otf",
	"pdf":   "application/pdf",
	"png":   "image/png",
	"ppt":   "application/vnd.ms-powerpoint",
	"pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"rar":   "application/vnd.rar",
	"rtf":   "application/rtf",
	"svg":   "image/svg+xml",
	"tar":   "application/x-tar",
	"tif":   "image/tiff",
	"tiff":  "image/tiff",
	"ts":    "video/mp2t",
	"ttf":   "font/ttf",
	"txt":   "text/plain",
	"wasm":  "application/wasm",
	"wav":   "audio/wav",
	"weba":  "audio/webm",
	"webm":  "video/webm",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"xhtml": "application/xhtml+xml",
	"xls":   "application/vnd.ms-excel",
	"xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xml":   "application/xml",
	"yaml":  "application/yaml",
	"yml":   "application/yaml",
	"zip":   "application/zip",
}

// MIMECache resolves filenames to content types, remembering the most
// recently used extensions.
//
// A MIMECache is safe for concurrent use.
type MIMECache struct {
	extra  map[string]string
	logger *zap.Logger

	mu      sync.Mutex
	entries *lru[string, string]
}

// NewMIMECache returns a cache holding at most capacity extensions. Entries in
// extra take precedence over the built-in table; their keys may be given with
// or without a leading dot.
func NewMIMECache(capacity int, extra map[string]string, logger *zap.Logger) *MIMECache {
	if capacity <= 0 {
		capacity = DefaultMIMECacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	overrides := make(map[string]string, len(extra))
	for ext, typ := range extra {
		overrides[strings.ToLower(strings.TrimPrefix(ext, "."))] = typ
	}

	c := &MIMECache{
		extra:   overrides,
		logger:  logger,
		entries: newLRU[string, string](capacity),
	}
	c.entries.onEvict = func(ext, _ string) {
		GetMetrics().cacheEvictions.WithLabelValues(cacheMIME).Inc()
		c.logger.Debug("mime cache evicted", zap.String("extension", ext))
	}
	return c
}

// Lookup returns the content type for filename, falling back to
// DefaultContentType when the extension is unknown.
func (c *MIMECache) Lookup(filename string) string {
	ext := extension(filename)

	c.mu.Lock()
	defer c.mu.Unlock()

	if typ, ok := c.entries.get(ext); ok {
		GetMetrics().cacheHits.WithLabelValues(cacheMIME).Inc()
		return typ
	}
	GetMetrics().cacheMisses.WithLabelValues(cacheMIME).Inc()

	typ := c.resolve(ext)
	c.entries.add(ext, typ)
	GetMetrics().cacheSize.WithLabelValues(cacheMIME).Set(float64(c.entries.len()))
	return typ
}

// Len returns the number of cached extensions.
func (c *MIMECache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

func (c *MIMECache) cached(filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.contains(extension(filename))
}

func (c *MIMECache) resolve(ext string) string {
	if typ, ok := c.extra[ext]; ok {
		return typ
	}
	if typ, ok := mimeTypes[ext]; ok {
		return typ
	}
	return DefaultContentType
}

// extension returns the lower-case text after the last dot in the base of
// filename, or the empty string when there is none.
func extension(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}
