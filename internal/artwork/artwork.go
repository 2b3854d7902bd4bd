// internal/artwork/artwork.go
//
// Background artwork prefetchers. A session calls Prefetch after every
// resolved guess; the context is the session's, so discarding the session
// cancels whatever is still downloading.
//
// Implementations:
//   - Warmer:   GETs the sprite URL and discards the body (warms CDN/proxy caches).
//   - S3Mirror: copies the sprite into an S3-compatible bucket once per species.
//
// Both remember which species they have already handled.
package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

// maxArtworkBytes caps a single download.
const maxArtworkBytes = 5 << 20

// seen is a concurrency-safe set of species ids.
type seen struct {
	mu  sync.Mutex
	ids map[int]struct{}
}

func (s *seen) has(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *seen) add(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = map[int]struct{}{}
	}
	s.ids[id] = struct{}{}
}

// Warmer fetches sprites once so later page loads hit a warm cache.
type Warmer struct {
	HTTP *http.Client
	done seen
}

func NewWarmer(timeout time.Duration) *Warmer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Warmer{HTTP: &http.Client{Timeout: timeout}}
}

func (w *Warmer) Prefetch(ctx context.Context, rec pokemon.Record) error {
	if rec.SpriteURL == "" || w.done.has(rec.ID) {
		return nil
	}
	body, err := fetch(ctx, w.HTTP, rec.SpriteURL)
	if err != nil {
		return err
	}
	_, err = io.Copy(io.Discard, body)
	body.Close()
	if err != nil {
		return fmt.Errorf("warm %s: %w", rec.SpriteURL, err)
	}
	w.done.add(rec.ID)
	return nil
}

// fetch GETs url and returns the body for a 200 response.
func fetch(ctx context.Context, c *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxArtworkBytes), resp.Body}, nil
}

// Noop is used when prefetching is disabled.
type Noop struct{}

func (Noop) Prefetch(context.Context, pokemon.Record) error { return nil }
