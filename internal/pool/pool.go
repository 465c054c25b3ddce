// Package pool caches one chat client per provider config id.
//
// Each cached entry records the UpdatedAt version of the config it was built
// from. Get re-reads the current config and rebuilds whenever the version has
// moved, so the pool self-heals after the user edits an API key or base URL
// without an explicit invalidation call.
package pool

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/model"
	"github.com/paralens-ai/paralens/internal/provider"
)

const poolSize = 32

type entry struct {
	client  *model.Client
	version int64
}

// Pool hands out chat clients keyed by provider config id.
type Pool struct {
	providers *provider.Store
	timeout   time.Duration
	logger    logging.Logger
	cache     *lru.Cache[string, entry]
}

// Options configures a Pool.
type Options struct {
	Providers *provider.Store
	// Timeout for each chat-completion HTTP call; zero means the client
	// default.
	Timeout int // seconds
	Logger  logging.Logger
}

// New creates an empty pool.
func New(opts Options) (*Pool, error) {
	cache, err := lru.New[string, entry](poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		providers: opts.Providers,
		logger:    logging.OrNop(opts.Logger),
		cache:     cache,
	}
	if opts.Timeout > 0 {
		p.timeout = time.Duration(opts.Timeout) * time.Second
	}
	return p, nil
}

// Get returns a client for the provider config id, building one when no
// cached client exists or the config has changed since construction.
func (p *Pool) Get(ctx context.Context, id string) (*model.Client, error) {
	cfg, ok := p.providers.Get(id)
	if !ok {
		return nil, errors.User(errors.CodeConfigNotFound, "AI config not found: "+id)
	}

	if ent, hit := p.cache.Get(id); hit && ent.version >= cfg.UpdatedAt {
		return ent.client, nil
	}

	if cfg.APIKey == "" {
		return nil, errors.User(errors.CodeAPIKeyMissing, "API key is not set")
	}

	p.logger.Info("building chat client for config %s (model %s)", id, cfg.Model)

	client := model.NewClient(model.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: p.timeout,
	}, p.logger)

	p.cache.Add(id, entry{client: client, version: cfg.UpdatedAt})

	return client, nil
}

// Invalidate drops the cached client for id, if any.
func (p *Pool) Invalidate(id string) {
	p.cache.Remove(id)
}

// Clear drops every cached client.
func (p *Pool) Clear() {
	p.cache.Purge()
}
