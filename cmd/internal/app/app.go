// Package app wires the besocial server runtime: config, logging, HTTP
// routes, persistence and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/chat"
	"besocial/cmd/internal/realtime"
	"besocial/cmd/internal/social"
	"besocial/cmd/internal/suggest"
)

// stores bundles the persistence layer so DB-backed resources can be
// closed together on shutdown.
type stores struct {
	users    identity.Store
	messages chat.MessageStore
	posts    social.PostStore
	notifs   social.NotificationStore

	pool *pgxpool.Pool
}

func (s *stores) close() {
	if s == nil {
		return
	}
	_ = s.users.Close()
	_ = s.messages.Close()
	_ = s.posts.Close()
	_ = s.notifs.Close()
	if s.pool != nil {
		s.pool.Close()
	}
}

// App is the besocial server runtime.
type App struct {
	cfg Config
	log Logger

	st *stores

	ws         *realtime.Gateway
	authH      *auth.Handler
	chatH      *chat.Handler
	socialH    *social.Handler
	assistantH *suggest.AssistantHandler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	st, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	authCfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		st.close()
		return nil, err
	}
	tokens, err := auth.NewPasetoV4PublicManager(authCfg)
	if err != nil {
		st.close()
		return nil, err
	}
	authHandler, err := auth.NewHandler(log, authCfg, st.users, tokens)
	if err != nil {
		st.close()
		return nil, err
	}
	resolver := authHandler.Resolver()

	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(log, registry)
	router := realtime.NewRouter(log, registry)
	ws := realtime.NewGateway(log, broadcaster, resolver)

	generator := suggest.NewGeminiGeneratorFromEnv()
	suggester := suggest.NewGateway(log, generator)
	chatHandler := chat.NewHandler(log, resolver, st.users, st.messages, router, suggester)
	socialHandler := social.NewHandler(log, resolver, st.users, st.posts, st.notifs, nil)
	assistantHandler := suggest.NewAssistantHandler(log, resolver, generator)

	return &App{
		cfg:        cfg,
		log:        log,
		st:         st,
		ws:         ws,
		authH:      authHandler,
		chatH:      chatHandler,
		socialH:    socialHandler,
		assistantH: assistantHandler,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.st.pool, a.ws, a.authH, a.chatH, a.socialH, a.assistantH)

	handler := WithRequestLogging(WithSecurityHeaders(WithCORS(mux, a.cfg, a.log)), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.st.pool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.st.close()

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStores decides between Postgres-backed persistence and the
// in-memory dev stores.
func newStores(ctx context.Context, cfg Config, log Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return &stores{
			users:    identity.NewInMemoryStore(),
			messages: chat.NewInMemoryStore(),
			posts:    social.NewInMemoryPostStore(),
			notifs:   social.NewInMemoryNotificationStore(),
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)

	// Ownership model:
	// - app owns pool lifecycle
	// - the stores' Close() methods are no-ops
	users, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}
	messages, err := chat.NewPostgresStore(pool, chat.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}
	posts, err := social.NewPostgresPostStore(pool, social.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}
	notifs, err := social.NewPostgresNotificationStore(pool, social.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		users:    users,
		messages: messages,
		posts:    posts,
		notifs:   notifs,
		pool:     pool,
	}, nil
}
