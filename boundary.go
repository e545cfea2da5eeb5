package multiform

import (
	"encoding/hex"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BoundaryLength is the length of every token produced by a BoundaryPool.
const BoundaryLength = 32

// DefaultBoundaryPoolSize is the batch size used when a pool is created with a
// non-positive size.
const DefaultBoundaryPoolSize = 50

// BoundaryPool hands out multipart boundaries from a pre-generated batch.
//
// No two outstanding tokens are equal. A token becomes outstanding when
// returned by Next and stops being outstanding when passed to Release, after
// which the pool may hand it out again.
//
// A BoundaryPool is safe for concurrent use.
type BoundaryPool struct {
	size   int
	logger *zap.Logger

	mu          sync.Mutex
	free        []string
	outstanding map[string]struct{}

	// newToken is replaced in tests to force collisions.
	newToken func() string
}

// NewBoundaryPool returns a pool that generates tokens in batches of size.
func NewBoundaryPool(size int, logger *zap.Logger) *BoundaryPool {
	if size <= 0 {
		size = DefaultBoundaryPoolSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoundaryPool{
		size:        size,
		logger:      logger,
		free:        make([]string, 0, size),
		outstanding: make(map[string]struct{}, size),
		newToken:    randomToken,
	}
}

// Next returns a token that is not currently outstanding. It refills the pool
// synchronously when the free list is empty and never fails.
func (p *BoundaryPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		p.refill()
	}

	last := len(p.free) - 1
	token := p.free[last]
	p.free = p.free[:last]
	p.outstanding[token] = struct{}{}

	GetMetrics().boundariesInUse.Inc()
	return token
}

// Release returns token to the pool. Tokens the pool did not hand out, or that
// were already released, are ignored.
func (p *BoundaryPool) Release(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.outstanding[token]; !ok {
		return
	}
	delete(p.outstanding, token)
	GetMetrics().boundariesInUse.Dec()

	// Keep the free list bounded; a dropped token is simply never reused.
	if len(p.free) < p.size {
		p.free = append(p.free, token)
	}
}

// Outstanding returns the number of tokens handed out and not yet released.
func (p *BoundaryPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outstanding)
}

// refill generates a fresh batch. The caller must hold p.mu.
func (p *BoundaryPool) refill() {
	seen := make(map[string]struct{}, p.size)
	for len(p.free) < p.size {
		token := p.newToken()
		if _, ok := p.outstanding[token]; ok {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		p.free = append(p.free, token)
	}

	GetMetrics().boundaryRefills.Inc()
	p.logger.Debug("boundary pool refilled",
		zap.Int("batch", p.size),
		zap.Int("outstanding", len(p.outstanding)))
}

func randomToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// validateBoundary checks a caller supplied boundary against RFC 2046 section
// 5.1.1.
func validateBoundary(boundary string) error {
	if len(boundary) < 1 || len(boundary) > 70 {
		return errors.New("form: invalid boundary length")
	}
	end := len(boundary) - 1
	for i, b := range boundary {
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?':
			continue
		case ' ':
			if i != end {
				continue
			}
		}
		return errors.New("form: invalid boundary character")
	}
	return nil
}
