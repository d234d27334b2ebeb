package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/config"
	"github.com/janekbaraniewski/glmusage/internal/logging"
	"github.com/janekbaraniewski/glmusage/internal/poller"
	"github.com/janekbaraniewski/glmusage/internal/providers/zai"
	"github.com/janekbaraniewski/glmusage/internal/store"
)

// app bundles the pieces every command needs.
type app struct {
	cfgPath   string
	credsPath string
	cfg       config.Config
	log       *zap.Logger
	store     *store.Store
}

// credentialsPathFor keeps credentials next to a non-default settings file.
func credentialsPathFor(cfgPath string) string {
	if filepath.Clean(cfgPath) == filepath.Clean(config.ConfigPath()) {
		return config.CredentialsPath()
	}
	return filepath.Join(filepath.Dir(cfgPath), "credentials.json")
}

// loadApp reads config, builds the logger and opens the history store. With
// logToFile the log goes to the state dir, leaving the terminal to the UI.
func loadApp(cfgPath string, logToFile bool) (*app, error) {
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if os.Getenv("GLMUSAGE_DEBUG") != "" {
		level = "debug"
	}
	var outputs []string
	if logToFile {
		logPath, err := store.DefaultLogPath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
		outputs = []string{logPath}
	}
	log, err := logging.New(cfg.Log.Format, level, outputs...)
	if err != nil {
		return nil, err
	}

	id, err := config.EnsureInstallationID(cfgPath)
	if err != nil {
		log.Warn("installation id unavailable, using shared scope", zap.Error(err))
		id = "default"
	}
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath, id)
	if err != nil {
		return nil, err
	}

	return &app{
		cfgPath:   cfgPath,
		credsPath: credentialsPathFor(cfgPath),
		cfg:       cfg,
		log:       log,
		store:     st,
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.store.Close()
}

// clientSettings is what a client is built from; a change requires a restart.
type clientSettings struct {
	token   string
	baseURL string
}

func (a *app) currentClientSettings() (clientSettings, error) {
	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil {
		return clientSettings{}, err
	}
	creds, err := config.LoadCredentialsFrom(a.credsPath)
	if err != nil {
		a.log.Warn("reading credentials", zap.Error(err))
	}
	token, err := cfg.ResolveToken(creds)
	if err != nil {
		return clientSettings{}, err
	}
	return clientSettings{token: token, baseURL: strings.TrimSpace(cfg.BaseURL)}, nil
}

// fetcherFactory re-reads config and credentials on every call so a Restart
// picks up a new token or endpoint.
func (a *app) fetcherFactory() poller.FetcherFactory {
	return func() (poller.Fetcher, error) {
		s, err := a.currentClientSettings()
		if err != nil {
			return nil, err
		}
		return zai.New(zai.Config{
			Token:   s.token,
			BaseURL: s.baseURL,
			Timeout: a.cfg.Polling.RequestTimeout(),
		})
	}
}

func (a *app) newPoller(ctx context.Context, displays []poller.Display, onError func(error)) (*poller.Poller, error) {
	return poller.New(ctx, poller.Options{
		NewFetcher: a.fetcherFactory(),
		Store:      a.store,
		Displays:   displays,
		OnError:    onError,
		Logger:     a.log.Named("poller"),
		Intervals: poller.Intervals{
			Active:        a.cfg.Polling.ActiveInterval(),
			Idle:          a.cfg.Polling.IdleInterval(),
			IdleThreshold: a.cfg.Polling.IdleThreshold(),
		},
		History: poller.HistoryOptions{
			Capacity:     a.cfg.History.Capacity,
			PersistLimit: a.cfg.History.PersistLimit,
			PersistEvery: a.cfg.History.PersistEvery,
			Window:       a.cfg.History.Window(),
		},
	})
}

// watchConfig restarts p when the token or endpoint changes on disk.
func (a *app) watchConfig(ctx context.Context, p *poller.Poller) {
	var mu sync.Mutex
	last, _ := a.currentClientSettings()
	onChange := func() {
		mu.Lock()
		defer mu.Unlock()
		next, err := a.currentClientSettings()
		if err != nil {
			a.log.Warn("config reload failed", zap.Error(err))
			return
		}
		if next == last {
			return
		}
		last = next
		a.log.Info("client settings changed, restarting poller", zap.String("base_url", next.baseURL))
		if err := p.Restart(); err != nil && !errors.Is(err, poller.ErrDisposed) {
			a.log.Error("restarting poller", zap.Error(err))
		}
	}

	if err := os.MkdirAll(filepath.Dir(a.cfgPath), 0o755); err != nil {
		a.log.Warn("config watch disabled", zap.Error(err))
		return
	}
	go func() {
		if err := config.Watch(ctx, a.log.Named("config"), onChange, a.cfgPath, a.credsPath); err != nil {
			a.log.Warn("config watch disabled", zap.Error(err))
		}
	}()
}
