package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/repository"
	"github.com/Makepad-fr/tada/internal/state"
	"github.com/Makepad-fr/tada/internal/store"
)

// UserAgent is sent with every API request.
const UserAgent = "tada-cli"

// Backends builds repositories from the configuration and closes whatever
// connections they opened.
type Backends struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *log.Logger
	closers []func() error
}

func NewBackends(ctx context.Context, cfg *config.Config, logger *log.Logger) *Backends {
	return &Backends{ctx: ctx, cfg: cfg, logger: logger}
}

// Factory satisfies state.Factory.
func (b *Backends) Factory(backend state.Backend) (repository.Repository, error) {
	switch backend {
	case state.BackendLocal:
		s := b.storage(b.cfg.Local.Storage, b.cfg.Local.DataDir, "tada:")
		return repository.NewLocal(s, b.cfg.Local.Key, b.logger), nil
	case state.BackendRemote:
		return b.remote()
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (b *Backends) remote() (repository.Repository, error) {
	client, err := api.NewClient(b.cfg.Remote.BaseURL,
		api.WithTimeout(time.Duration(b.cfg.Remote.TimeoutSeconds)*time.Second),
		api.WithTokenSource(auth.NewStore(b.cfg.Remote.CredentialsDir)),
		api.WithLogger(b.logger),
	)
	if err != nil {
		return nil, err
	}
	client.SetHeader("User-Agent", UserAgent)
	return repository.NewRemote(client, b.cfg.Remote.BasePath, b.logger), nil
}

// storage returns nil when redis cannot be reached; the local repository
// then runs from memory without persisting.
func (b *Backends) storage(kind, dir, prefix string) store.Storage {
	switch kind {
	case "memory":
		return store.NewMemory()
	case "redis":
		r, err := store.NewRedis(b.ctx, b.cfg.Local.RedisURL, prefix)
		if err != nil {
			b.logger.Warn("redis unavailable; continuing in memory only", "error", err)
			return nil
		}
		b.closers = append(b.closers, r.Close)
		return r
	default:
		return store.NewFile(dir)
	}
}

func (b *Backends) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}
