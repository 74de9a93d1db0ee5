// Package workarea provides per-request scratch directories that are always removed by
// their owner.
package workarea

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Area is an exclusively owned, uniquely named scratch directory. Release removes it and
// everything below it, including nested areas created with Sub.
type Area struct {
	path     string
	logger   *zap.Logger
	settle   time.Duration
	mu       sync.Mutex
	children []*Area
	released bool
}

// Option configures an Area.
type Option func(*Area)

// WithLogger sets the logger used to report cleanup failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *Area) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSettleDelay makes Release wait d before removing the directory. Useful on platforms
// where external tools keep file handles open briefly after exiting.
func WithSettleDelay(d time.Duration) Option {
	return func(a *Area) { a.settle = d }
}

// Acquire creates <root>/<prefix>_<uuid>. An empty root means os.TempDir().
// Callers must defer Release.
func Acquire(root, prefix string, opts ...Option) (*Area, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create work root: %w", err)
	}
	a := &Area{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.path = filepath.Join(root, uniqueName(prefix))
	if err := os.Mkdir(a.path, 0o700); err != nil {
		return nil, fmt.Errorf("create work area: %w", err)
	}
	a.logger.Debug("work area acquired", zap.String("path", a.path))
	return a, nil
}

func uniqueName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// Path returns the area directory.
func (a *Area) Path() string { return a.path }

// Join returns a path inside the area.
func (a *Area) Join(name ...string) string {
	return filepath.Join(append([]string{a.path}, name...)...)
}

// Sub creates a nested area that inherits the parent's options. It is released with the
// parent if the caller does not release it first.
func (a *Area) Sub(prefix string, opts ...Option) (*Area, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil, fmt.Errorf("work area %s already released", a.path)
	}
	child := &Area{logger: a.logger, settle: a.settle}
	for _, opt := range opts {
		opt(child)
	}
	child.path = filepath.Join(a.path, uniqueName(prefix))
	if err := os.Mkdir(child.path, 0o700); err != nil {
		return nil, fmt.Errorf("create nested work area: %w", err)
	}
	a.children = append(a.children, child)
	return child, nil
}

// Release removes the area. It is safe to call more than once; failures are logged and
// never returned.
func (a *Area) Release() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	children := a.children
	a.children = nil
	a.mu.Unlock()

	for _, c := range children {
		c.Release()
	}
	if a.settle > 0 {
		time.Sleep(a.settle)
	}
	if err := os.RemoveAll(a.path); err != nil {
		a.logger.Warn("work area cleanup failed", zap.String("path", a.path), zap.Error(err))
		return
	}
	a.logger.Debug("work area released", zap.String("path", a.path))
}
