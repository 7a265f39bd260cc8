package forms

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// TemplateLoaderConfig tunes template source loading.
type TemplateLoaderConfig struct {
	MaxFileSize     int64
	CacheMaxBytes   int64
	CacheMaxEntries int
	Logger          *zap.Logger
}

// DefaultTemplateLoaderConfig returns the production limits.
func DefaultTemplateLoaderConfig() TemplateLoaderConfig {
	return TemplateLoaderConfig{
		MaxFileSize:     100 * 1024 * 1024,
		CacheMaxBytes:   64 * 1024 * 1024,
		CacheMaxEntries: 32,
		Logger:          zap.NewNop(),
	}
}

// TemplateLoader resolves descriptor sources inside the template directory,
// validates them, and serves their bytes through the cache. Loading happens
// once per descriptor per run; every row reuses the same immutable buffer.
type TemplateLoader struct {
	guard     *PathGuard
	validator *TemplateValidator
	cache     *TemplateCache
	logger    *zap.Logger
}

// NewTemplateLoader creates a loader rooted at the template directory.
func NewTemplateLoader(templateDir string, config ...TemplateLoaderConfig) (*TemplateLoader, error) {
	cfg := DefaultTemplateLoaderConfig()
	if len(config) > 0 {
		if config[0].MaxFileSize > 0 {
			cfg.MaxFileSize = config[0].MaxFileSize
		}
		if config[0].CacheMaxBytes > 0 {
			cfg.CacheMaxBytes = config[0].CacheMaxBytes
		}
		if config[0].CacheMaxEntries > 0 {
			cfg.CacheMaxEntries = config[0].CacheMaxEntries
		}
		if config[0].Logger != nil {
			cfg.Logger = config[0].Logger
		}
	}

	guard, err := NewPathGuard(templateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}

	return &TemplateLoader{
		guard:     guard,
		validator: NewTemplateValidator(cfg.MaxFileSize),
		cache:     NewTemplateCache(cfg.CacheMaxBytes, cfg.CacheMaxEntries),
		logger:    cfg.Logger,
	}, nil
}

// Load returns the bytes of one template source. The result is shared with
// the cache and must be treated as read-only.
func (l *TemplateLoader) Load(source string) ([]byte, error) {
	path, err := l.guard.Resolve(source)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	if cached := l.cache.Get(path); cached != nil {
		return cached, nil
	}

	if err := l.validator.ValidateFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	l.cache.Put(path, data)
	l.logger.Debug("loaded template source",
		zap.String("source", source),
		zap.Int("size", len(data)))
	return data, nil
}

// Validate checks one template source without loading it into the cache.
func (l *TemplateLoader) Validate(source string) error {
	path, err := l.guard.Resolve(source)
	if err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	return l.validator.ValidateFile(path)
}

// Resolve maps a source name to its confined absolute path.
func (l *TemplateLoader) Resolve(source string) (string, error) {
	return l.guard.Resolve(source)
}

// PageCount reports the page count of one template source.
func (l *TemplateLoader) PageCount(source string) (int, error) {
	path, err := l.guard.Resolve(source)
	if err != nil {
		return 0, fmt.Errorf("security validation failed: %w", err)
	}
	return l.validator.PageCount(path)
}

// Root returns the template directory.
func (l *TemplateLoader) Root() string {
	return l.guard.Root()
}

// Validator exposes the file validator for directory scans.
func (l *TemplateLoader) Validator() *TemplateValidator {
	return l.validator
}

// CacheStats returns the template cache counters.
func (l *TemplateLoader) CacheStats() CacheStats {
	return l.cache.Stats()
}
