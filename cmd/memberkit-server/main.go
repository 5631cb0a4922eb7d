// Command memberkit-server serves the memberkit access API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fernandezvara/memberkit"
	"github.com/fernandezvara/memberkit/internal/config"
	"github.com/fernandezvara/memberkit/internal/logger"
	"github.com/fernandezvara/memberkit/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("memberkit-server stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Development()})

	db, err := dbkit.New(dbkit.Config{URL: cfg.Database.URL})
	if err != nil {
		return err
	}
	defer db.Close()

	service := memberkit.NewService(db, memberkit.WithServiceLogger(log))
	if err := service.ConfigurePool(memberkit.PoolConfig{
		MaxOpenConnections:    cfg.Database.MaxOpenConns,
		MaxIdleConnections:    cfg.Database.MaxIdleConns,
		ConnectionMaxLifetime: memberkit.DefaultPoolConfig().ConnectionMaxLifetime,
		ConnectionMaxIdleTime: memberkit.DefaultPoolConfig().ConnectionMaxIdleTime,
	}); err != nil {
		return err
	}
	if _, err := service.Migrate(ctx); err != nil {
		return err
	}

	var prefs memberkit.PreferenceStore = memberkit.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, dashboard preferences kept in memory")
		} else {
			prefs = memberkit.NewRedisPreferenceStore(client, 0)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}()
	}

	resolverLog := memberkit.WithResolverLogger(log)
	roles := memberkit.NewRoleResolver(service, resolverLog)
	approvals := memberkit.NewApprovalResolver(service, service, resolverLog)

	gate := memberkit.NewMiddleware(roles, approvals,
		memberkit.WithPrincipalExtractor(memberkit.BearerPrincipalExtractor([]byte(cfg.JWTSecret))),
		memberkit.WithSignInPath(cfg.SignInPath),
		memberkit.WithResolveTimeout(cfg.ResolveTimeout),
		memberkit.WithMiddlewareLogger(log),
	)

	router := server.NewRouter(server.Params{
		Logger:      log,
		Gate:        gate,
		Admin:       service,
		Preferences: prefs,
		Health:      service,
		RateLimit:   cfg.RateLimit,
		Production:  cfg.Env == "production",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ResolveTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
