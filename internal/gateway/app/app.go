package app

import (
	"context"
	"fmt"
	"io"
	"log"

	subjectcache "focuslog/internal/cache/subjects"
	"focuslog/internal/focus"
	"focuslog/internal/gateway/config"
	"focuslog/internal/gateway/handler"
	"focuslog/internal/gateway/handler/rpc"
	"focuslog/internal/gateway/server"
	"focuslog/internal/gateway/service/feed"
	"focuslog/internal/gateway/service/study"
	"focuslog/internal/logging"
	"focuslog/internal/notion"
)

type App struct {
	server  *server.Server
	closers []io.Closer
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(context.Background(), cfg)
}

// NewWithConfig wires every dependency from cfg. Missing Notion credentials
// fail startup with a *focus.ConfigurationError.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := NotionClient(cfg)
	if err != nil {
		return nil, err
	}
	logCloser := logging.Setup(logging.DefaultOptions(cfg.LogFile))

	// Dependencies
	led, ledgerCloser, err := initLedger(ctx, cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	acc := focus.NewStoreAccumulator(client, cfg.MatchStrategy)
	hub := feed.NewHub()
	cacheCfg := subjectcache.DefaultCacheConfig()
	if cfg.SubjectCacheTTL > 0 {
		cacheCfg.TTL = cfg.SubjectCacheTTL
	}
	studySvc := study.New(study.Deps{
		Accumulator:  acc,
		Days:         acc,
		Subjects:     client,
		SubjectCache: subjectcache.NewCache(cacheCfg),
		Ledger:       led,
		Feed:         hub,
	})

	focusHandler := handler.NewFocusHandler(studySvc)
	focusRPC := rpc.NewFocusHandler(studySvc)
	feedHandler := rpc.NewFeedHandler(hub)

	// Routing & Server
	mux := server.NewMux(focusHandler, focusRPC, feedHandler)
	srv := server.New(cfg.Port, mux)

	log.Printf("focus gateway: env=%s store=%s match=%s", cfg.Env, client.Name(), cfg.MatchStrategy)
	return &App{
		server:  srv,
		closers: []io.Closer{ledgerCloser, logCloser},
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func notionConfig(cfg *config.Config) notion.Config {
	return notion.Config{
		Token:      cfg.Notion.Token,
		DatabaseID: cfg.Notion.DatabaseID,
		BaseURL:    cfg.Notion.BaseURL,
		Version:    cfg.Notion.Version,
		Properties: notion.PropertyNames{
			Day:     cfg.Notion.DayProp,
			Subject: cfg.Notion.SubjectProp,
			Focus:   cfg.Notion.FocusProp,
		},
	}
}

// NotionClient builds a client from cfg for tools that share the gateway
// configuration.
func NotionClient(cfg *config.Config) (*notion.Client, error) {
	if err := cfg.Notion.Validate(); err != nil {
		return nil, err
	}
	return notion.NewClient(notionConfig(cfg))
}

