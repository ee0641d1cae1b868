package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"go.uber.org/zap"
)

// DefaultScheme is used for URIs without a scheme.
const DefaultScheme = "file"

// Registry dispatches URIs to loaders by scheme. The loader receives the
// URI with "scheme://" removed.
type Registry struct {
	loaders map[string]Loader
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a registry with the built-in schemes:
//
//	file://path/items.csv      FileLoader rooted at cfg.BaseDir
//	http://, https://          HTTPLoader
//	s3://bucket/key            S3Loader, client created on first use
//	gs://bucket/object         GCSLoader, client created on first use
//	xlsx://path/book.xlsx#Sheet XLSXLoader over the file loader
func NewRegistry(cfg config.SourceConfig) *Registry {
	r := NewEmptyRegistry()
	files := NewFileLoader(cfg.BaseDir)

	r.mustRegister("file", files)
	r.mustRegister("http", NewHTTPLoader("http://", cfg.HTTPTimeout))
	r.mustRegister("https", NewHTTPLoader("https://", cfg.HTTPTimeout))
	r.mustRegister("xlsx", NewXLSXLoader(files))
	r.mustRegister("s3", lazy(func(ctx context.Context) (Loader, error) {
		return DialS3(ctx, cfg.S3)
	}))
	r.mustRegister("gs", lazy(func(ctx context.Context) (Loader, error) {
		return DialGCS(ctx, cfg.GCS)
	}))
	return r
}

// NewEmptyRegistry creates a registry without schemes.
func NewEmptyRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		logger:  logger.Get().With(zap.String("component", "source_registry")),
	}
}

// Register adds a loader for scheme.
func (r *Registry) Register(scheme string, l Loader) error {
	scheme = strings.ToLower(scheme)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[scheme]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "source scheme %s already registered", scheme)
	}
	r.loaders[scheme] = l
	r.logger.Debug("source scheme registered", zap.String("scheme", scheme))
	return nil
}

// Replace registers l for scheme, replacing any existing loader.
func (r *Registry) Replace(scheme string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[strings.ToLower(scheme)] = l
}

func (r *Registry) mustRegister(scheme string, l Loader) {
	if err := r.Register(scheme, l); err != nil {
		panic(err)
	}
}

// Schemes returns the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.loaders))
	for s := range r.loaders {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Load resolves uri and loads it with the scheme's loader.
func (r *Registry) Load(ctx context.Context, uri string) (string, error) {
	scheme, id := Split(uri)

	r.mu.RLock()
	l, ok := r.loaders[scheme]
	r.mu.RUnlock()
	if !ok {
		return "", errors.Newf(errors.ErrorTypeConfig, "no loader for scheme %q", scheme).
			WithDetail("uri", uri)
	}
	return l.Load(ctx, id)
}

// Split returns the lowercased scheme of uri and the remainder. URIs
// without "://" use DefaultScheme.
func Split(uri string) (string, string) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" || strings.ContainsAny(scheme, "/\\") {
		return DefaultScheme, uri
	}
	return strings.ToLower(scheme), rest
}

// lazy defers loader construction to the first Load. A failed dial is
// retried on the next call.
func lazy(dial func(ctx context.Context) (Loader, error)) Loader {
	var (
		mu     sync.Mutex
		loader Loader
	)
	return LoaderFunc(func(ctx context.Context, id string) (string, error) {
		mu.Lock()
		if loader == nil {
			l, err := dial(ctx)
			if err != nil {
				mu.Unlock()
				return "", err
			}
			loader = l
		}
		l := loader
		mu.Unlock()
		return l.Load(ctx, id)
	})
}
