package app

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/coder/quartz"
	"github.com/grigolet/gangle/internal/auth"
	"github.com/grigolet/gangle/internal/game"
	"github.com/grigolet/gangle/internal/handler"
	"github.com/grigolet/gangle/internal/logger"
	"github.com/grigolet/gangle/internal/service"
	"github.com/grigolet/gangle/internal/storage"
	"github.com/grigolet/gangle/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg Config
	log *zap.Logger
	db  *pgxpool.Pool
	svc service.GameService
	srv *http.Server
}

func New(cfg Config) (*App, error) {
	l, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	clock := quartz.NewReal()

	var (
		db     *pgxpool.Pool
		rounds game.RoundStore
		board  storage.LeaderboardStore
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		db, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = l.Sync()
			return nil, err
		}
		if err := storage.InitSchema(ctx, db); err != nil {
			db.Close()
			_ = l.Sync()
			return nil, err
		}
		rounds = storage.NewPostgresRoundStore(db)
		board = storage.NewPostgresLeaderboardStore(db)
		l.Info("using postgres storage")
	} else {
		rounds, err = storage.NewFileRoundStore(filepath.Join(cfg.DataDir, "games"))
		if err != nil {
			_ = l.Sync()
			return nil, err
		}
		board, err = storage.NewFileLeaderboardStore(filepath.Join(cfg.DataDir, "leaderboards"), clock)
		if err != nil {
			_ = l.Sync()
			return nil, err
		}
		l.Info("using file storage", zap.String("data_dir", cfg.DataDir))
	}

	gameSvc := service.NewGameService(rounds, board, auth.NewStaticChecker(cfg.AdminIDs), clock, service.Config{
		MinWait:          cfg.MinWait,
		MaxWait:          cfg.MaxWait,
		MonitorInterval:  cfg.MonitorInterval,
		LeaderboardLimit: cfg.LeaderboardLimit,
	}, l)

	hub := ws.NewHub(gameSvc, l)
	gameSvc.SetNotifier(hub)

	mux := http.NewServeMux()
	handler.RegisterHandlers(mux, gameSvc, hub, cfg.AdminToken, l)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	return &App{cfg: cfg, log: l, db: db, svc: gameSvc, srv: srv}, nil
}

// Run restores any persisted rounds, serves HTTP, and shuts the server down
// when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	restored, err := a.svc.RestoreActiveRounds(ctx)
	if err != nil {
		return err
	}

	a.log.Info("server started",
		zap.String("addr", a.cfg.HTTPAddr),
		zap.Int("rounds_restored", restored),
		zap.String("log_level", a.cfg.LogLevel),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.svc != nil {
		a.svc.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
