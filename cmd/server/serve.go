package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/config"
	"github.com/iliyamo/movie-rental/internal/database"
	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/repository/memstore"
	"github.com/iliyamo/movie-rental/internal/router"
	"github.com/iliyamo/movie-rental/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, newLogger(cfg))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stores are the persistence backends chosen by configuration.
type stores struct {
	db          *sql.DB // nil with the memory driver
	movies      service.MovieStore
	users       service.UserStore
	revocations auth.RevocationList
}

func openStores(ctx context.Context, cfg config.Config, rdb *redis.Client, logger *slog.Logger) (*stores, error) {
	st := &stores{}
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart", "module", "bootstrap")
		st.movies, st.users, st.revocations = memstore.NewMovies(), memstore.NewUsers(), memstore.NewRevocations()
	default:
		db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.DBAutoMigrate {
			if err := database.MigrateUp(db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", "module", "bootstrap")
		}
		st.db = db
		st.movies, st.users, st.revocations = repository.NewMovieRepo(db), repository.NewUserRepo(db), repository.NewTokenRepo(db)
	}

	if cfg.RevocationBackend == config.RevocationRedis {
		if rdb == nil {
			st.close()
			return nil, errors.New("REVOCATION_BACKEND=redis but redis is not available")
		}
		st.revocations = repository.NewRedisRevocationStore(rdb, cfg.RevocationTTL)
	}
	return st, nil
}

func (st *stores) close() {
	if st.db != nil {
		_ = st.db.Close()
	}
}

// auditPipeline builds the recorder used by the services. With RabbitMQ
// the file sink stays as a fallback and, if configured, the consumer
// drains the queue into the same file.
func auditPipeline(cfg config.Config, logger *slog.Logger) (service.Auditor, *queue.Consumer) {
	file := queue.NewFileSink(cfg.AuditLogPath)
	logger.Info("audit pipeline", "module", "bootstrap", "sink", cfg.AuditSink, "file", file.Path())
	if cfg.AuditSink != config.AuditRabbitMQ {
		return file, nil
	}
	pub := queue.Fallback{Primary: queue.NewPublisher(cfg.RabbitMQURL, logger), Secondary: file}
	if !cfg.AuditConsumer {
		return pub, nil
	}
	return pub, queue.NewConsumer(cfg.RabbitMQURL, file, logger)
}

func newEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(logger))
	return e
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	st, err := openStores(ctx, cfg, rdb, logger)
	if err != nil {
		return err
	}
	defer st.close()

	auditor, consumer := auditPipeline(cfg, logger)
	deps := service.Deps{
		Movies:      st.movies,
		Users:       st.users,
		Revocations: st.revocations,
		Audit:       auditor,
		Logger:      logger,
	}
	catalog := service.NewCatalog(deps, cfg.PaginationSize)
	tx := service.NewTransactions(deps, cfg.DefaultRentalDays, cfg.LateTaxPerDay)
	accounts := service.NewAccounts(deps, service.AccountOptions{
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: cfg.AllowAdminSignup,
	})

	e := newEcho(logger)
	var pinger handler.Pinger
	if st.db != nil {
		pinger = st.db
	}
	router.RegisterRoutes(e, pinger)
	router.RegisterAPI(e, router.Handlers{
		Movies: handler.NewMovieHandler(catalog, tx),
		Store:  handler.NewStoreHandler(tx),
		Users:  handler.NewUserHandler(accounts),
	}, router.Options{
		Resolver:  auth.NewResolver(cfg.JWTSecret, st.users, st.revocations),
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", "module", "audit", "error", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "module", "bootstrap", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "module", "bootstrap")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	err = e.Shutdown(shutdownCtx)
	cancel()
	wg.Wait()
	return err
}
