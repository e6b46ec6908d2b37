package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/app"
	"github.com/jrsteele09/go-notes-client/auth"
	"github.com/jrsteele09/go-notes-client/internal/config"
	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/sessions/boltstore"
	"github.com/jrsteele09/go-notes-client/sessions/filestore"
	"github.com/jrsteele09/go-notes-client/sessions/memstore"
	"github.com/jrsteele09/go-notes-client/sessions/redisstore"
	"github.com/rs/zerolog"
)

// client is everything a command needs, wired from configuration.
type client struct {
	store   *sessions.Store
	api     *api.Client
	gateway *auth.Gateway
	machine *app.Machine
	closer  io.Closer
}

func (c *client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStorage picks the session backend named by the configuration.
func openStorage(ctx context.Context, c config.SessionConfig) (sessions.Storage, io.Closer, error) {
	switch backend := c.GetSessionBackend(); backend {
	case config.SessionBackendMemory:
		return memstore.New(), nopCloser{}, nil
	case config.SessionBackendFile:
		path := c.GetSessionPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("[openStorage] %w", err)
		}
		fs, err := filestore.New(path)
		if err != nil {
			return nil, nil, err
		}
		return fs, nopCloser{}, nil
	case config.SessionBackendBolt:
		path := c.GetSessionPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("[openStorage] %w", err)
		}
		bs, err := boltstore.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	case config.SessionBackendRedis:
		rs, err := redisstore.Dial(ctx, c.GetRedisAddr(), redisstore.WithPrefix(c.GetRedisKeyPrefix()))
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	default:
		return nil, nil, fmt.Errorf("[openStorage] unknown session backend %q", backend)
	}
}

func newClient(ctx context.Context, c config.Config, logger zerolog.Logger) (*client, error) {
	if err := config.Validate(c); err != nil {
		return nil, err
	}

	storage, closer, err := openStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := sessions.NewStore(storage, sessions.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, err
	}

	apiClient, err := api.New(c.GetAPIBaseURL(), store.TokenSource(),
		api.WithTimeout(c.GetRequestTimeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		closer.Close()
		return nil, err
	}

	gateway, err := auth.NewGateway(store, apiClient, auth.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, err
	}

	machine, err := app.New(store, gateway, apiClient.Notes(),
		app.WithLogger(logger),
		app.WithFreeNoteLimit(c.GetFreeNoteLimit()),
	)
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &client{store: store, api: apiClient, gateway: gateway, machine: machine, closer: closer}, nil
}

// withClient opens a client for the duration of run.
func withClient(ctx context.Context, run func(*client) error) error {
	c, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return run(c)
}

// withSession is withClient for commands that need a signed in user.
func withSession(ctx context.Context, run func(*client) error) error {
	return withClient(ctx, func(c *client) error {
		if !c.machine.Restore() {
			return fmt.Errorf("not signed in, run \"notes login\" first")
		}
		return run(c)
	})
}
