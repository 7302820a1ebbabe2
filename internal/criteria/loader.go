package criteria

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cacheTTL is the freshness window for the in-process criteria cache.
const cacheTTL = 60 * time.Second

// Loader reads the criteria document from disk and caches it in memory.
// Reads take an immutable snapshot pointer; concurrent reloads race safely
// with last-write-wins semantics (the document is read-only configuration).
type Loader struct {
	path string
	now  func() time.Time

	mu       sync.Mutex
	cached   *Criteria
	loadedAt time.Time
}

// NewLoader creates a Loader for the criteria document at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (l *Loader) WithNow(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load returns the current criteria. A cached copy younger than the TTL is
// returned as-is unless force is true. Read or parse failures never
// propagate: the compiled-in defaults are returned instead.
func (l *Loader) Load(force bool) *Criteria {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !force && l.cached != nil && l.now().Sub(l.loadedAt) < cacheTTL {
		return l.cached
	}

	c, err := l.read()
	if err != nil {
		zap.L().Warn("criteria: falling back to builtin defaults",
			zap.String("path", l.path),
			zap.Error(err),
		)
		c = Defaults()
	}

	l.cached = c
	l.loadedAt = l.now()
	return c
}

// Invalidate clears the cached criteria without reading the document.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.loadedAt = time.Time{}
}

func (l *Loader) read() (*Criteria, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var c Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}

	zap.L().Debug("criteria: loaded document",
		zap.String("version", c.Version),
		zap.String("last_updated", c.LastUpdated),
	)
	return &c, nil
}
