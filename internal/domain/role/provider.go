package role

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConfigProvider hands out role configs to the scoring pipeline. Lookup
// misses fall back to the default role; callers use the ok flag to mark
// the score as role_unmatched.
type ConfigProvider interface {
	Get(ctx context.Context, roleID string) (Config, bool, error)
}

// CachingProvider loads all role configs in bulk and refreshes them on a
// TTL. Safe for concurrent use.
type CachingProvider struct {
	repo ConfigRepository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	configs  map[string]Config
	loadedAt time.Time
}

func NewCachingProvider(repo ConfigRepository, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the config for roleID, refreshing the cache when stale.
// The second return value is false when the role had no config and the
// default was substituted.
func (p *CachingProvider) Get(ctx context.Context, roleID string) (Config, bool, error) {
	if err := p.ensureFresh(ctx); err != nil {
		return Config{}, false, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if cfg, ok := p.configs[roleID]; ok {
		return cfg, true, nil
	}
	if cfg, ok := p.configs[DefaultRoleID]; ok {
		return cfg, false, nil
	}
	return DefaultConfig(), false, nil
}

func (p *CachingProvider) ensureFresh(ctx context.Context) error {
	p.mu.RLock()
	fresh := p.configs != nil && p.now().Sub(p.loadedAt) < p.ttl
	p.mu.RUnlock()
	if fresh {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if p.configs != nil && p.now().Sub(p.loadedAt) < p.ttl {
		return nil
	}

	configs, err := p.repo.ListAll(ctx)
	if err != nil {
		// Keep serving a stale cache over failing the whole batch.
		if p.configs != nil {
			return nil
		}
		return fmt.Errorf("failed to load role configs: %w", err)
	}

	byID := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		byID[cfg.RoleID] = cfg
	}
	p.configs = byID
	p.loadedAt = p.now()
	return nil
}
