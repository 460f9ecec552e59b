package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"example.com/ms-mvp/internal/auth"
	"example.com/ms-mvp/internal/config"
	"example.com/ms-mvp/internal/game"
	"example.com/ms-mvp/internal/httpapi"
	"example.com/ms-mvp/internal/metrics"
)

type App struct {
	cfg config.Config
	log zerolog.Logger

	rooms *game.Registry
	srv   *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(cfg config.Config, log zerolog.Logger, opts Options) *App {
	mets := metrics.New()
	authSvc := auth.NewService([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)

	gameCfg := game.Config{
		HostGracePeriod: cfg.Game.HostGracePeriod,
		RoomIdleTTL:     cfg.Game.RoomIdleTTL,
	}
	rooms := game.NewRegistry(gameCfg, log, mets)
	gameSrv := game.NewServer(gameCfg, log, rooms, authSvc, authSvc, mets)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.RequestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", mets.Handler())

	gameSrv.RegisterRoutes(r)

	if opts.Static != nil {
		r.Handle("/*", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, rooms: rooms, srv: srv}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info().Str("addr", a.cfg.HTTP.Addr).Msg("http server starting")

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a.rooms.RunSweeper(gctx, a.cfg.Game.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info().Msg("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}
