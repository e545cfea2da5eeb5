package multiform

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMIMECache_Lookup(t *testing.T) {
	t.Parallel()

	cache := NewMIMECache(10, map[string]string{
		".foo": "application/x-foo",
		"PNG":  "image/x-custom-png",
	}, nil)

	tests := map[string]struct {
		filename string
		want     string
	}{
		"text": {
			filename: "a.txt",
			want:     "text/plain",
		},
		"upper case extension": {
			filename: "PHOTO.JPG",
			want:     "image/jpeg",
		},
		"last extension wins": {
			filename: "archive.tar.gz",
			want:     "application/gzip",
		},
		"no extension": {
			filename: "README",
			want:     DefaultContentType,
		},
		"dot in directory": {
			filename: "dir.v2/file",
			want:     DefaultContentType,
		},
		"windows path": {
			filename: `C:\docs\report.PDF`,
			want:     "application/pdf",
		},
		"unknown extension": {
			filename: "data.xyz123",
			want:     DefaultContentType,
		},
		"configured extension": {
			filename: "thing.foo",
			want:     "application/x-foo",
		},
		"configured override": {
			filename: "image.png",
			want:     "image/x-custom-png",
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := cache.Lookup(tt.filename); got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestMIMECache_Eviction(t *testing.T) {
	t.Parallel()

	cache := NewMIMECache(100, nil, nil)
	before := testutil.ToFloat64(GetMetrics().cacheEvictions.WithLabelValues(cacheMIME))

	cache.Lookup("a.txt")
	for i := 0; i <= 100; i++ {
		cache.Lookup(fmt.Sprintf("file.ext%d", i))
	}

	if cache.cached("a.txt") {
		t.Error("expected a.txt to be evicted")
	}
	if got := cache.Len(); got != 100 {
		t.Errorf("expected 100 entries, got %d", got)
	}
	after := testutil.ToFloat64(GetMetrics().cacheEvictions.WithLabelValues(cacheMIME))
	if after-before < 2 {
		t.Errorf("expected at least 2 evictions, got %v", after-before)
	}

	// An evicted extension is resolved again.
	if got := cache.Lookup("a.txt"); got != "text/plain" {
		t.Errorf("expected text/plain, got %q", got)
	}
	if !cache.cached("a.txt") {
		t.Error("expected a.txt to be cached again")
	}
}

func TestMIMECache_RecentlyUsedSurvives(t *testing.T) {
	t.Parallel()

	cache := NewMIMECache(3, nil, nil)
	cache.Lookup("a.txt")
	cache.Lookup("b.png")
	cache.Lookup("c.gif")
	cache.Lookup("again.txt") // touches txt
	cache.Lookup("d.pdf")

	if !cache.cached("x.txt") {
		t.Error("expected txt to survive")
	}
	if cache.cached("x.png") {
		t.Error("expected png to be evicted")
	}
}

func TestMIMECache_Hits(t *testing.T) {
	t.Parallel()

	cache := NewMIMECache(0, nil, nil)
	before := testutil.ToFloat64(GetMetrics().cacheHits.WithLabelValues(cacheMIME))
	cache.Lookup("one.json")
	cache.Lookup("two.JSON")
	after := testutil.ToFloat64(GetMetrics().cacheHits.WithLabelValues(cacheMIME))

	if after-before < 1 {
		t.Errorf("expected a cache hit, got %v", after-before)
	}
	if got := cache.Len(); got != 1 {
		t.Errorf("expected 1 entry, got %d", got)
	}
}
