package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/attendease/adapters/events"
	"github.com/layer-3/attendease/adapters/identity"
	"github.com/layer-3/attendease/adapters/sqlite"
	"github.com/layer-3/attendease/adapters/store"
	"github.com/layer-3/attendease/adapters/tokenizer"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/config"
	"github.com/layer-3/attendease/internal/metrics"
	logctx "github.com/layer-3/attendease/internal/pkg/log"
	"github.com/layer-3/attendease/ports"
	"github.com/layer-3/attendease/service"
	httptransport "github.com/layer-3/attendease/transport/http"
)

func main() {
	var configPath, mint string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&mint, "mint", "", "print a bearer token for user:role and exit")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	if mint != "" {
		if err := mintBearer(cfg, mint); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log := logctx.New(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	ctx := logctx.Into(rootCtx, log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("application_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := sqlite.InitDB(ctx, cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer sqlite.CloseDB(db)
	log.Info("ledger_opened", slog.String("path", cfg.Ledger.Path))

	courses := sqlite.NewCourseRepository(db)
	for _, c := range cfg.Courses {
		if err := courses.Upsert(ctx, core.Course{
			ID:         c.ID,
			Name:       c.Name,
			Code:       c.Code,
			Faculty:    c.Faculty,
			StudentIDs: c.Students,
		}); err != nil {
			return err
		}
	}

	activeStore, publisher, closeInfra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeInfra()

	tk := tokenizer.NewDigestTokenizer(
		tokenizer.WithNamespace(cfg.Token.Namespace),
		tokenizer.WithValidityWindow(cfg.Token.ValidityWindow),
		tokenizer.WithClockSkew(cfg.Token.ClockSkew),
	)

	svc := service.NewAttendanceService(
		tk,
		activeStore,
		sqlite.NewAttendanceRepository(db),
		courses,
		events.NewWatermillPublisher(publisher),
		cfg.Token.SharedSecret,
		service.WithValidityWindow(cfg.Token.ValidityWindow),
	)
	if err := svc.Reset(ctx); err != nil {
		return err
	}

	presenter := service.NewPresenter(svc, service.WithTickInterval(cfg.Token.TickInterval))
	defer presenter.StopAll()

	if cfg.Env != logctx.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httptransport.SetupRouter(log, metrics.New(), svc, presenter, identity.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}
	return nil
}

// mintBearer prints a day-long bearer token for local testing.
func mintBearer(cfg *config.Config, userRole string) error {
	userID, role, ok := strings.Cut(userRole, ":")
	if !ok || userID == "" {
		return fmt.Errorf("mint: expected user:role, got %q", userRole)
	}
	switch core.Role(role) {
	case core.RoleStudent, core.RoleFaculty, core.RoleAdmin:
	default:
		return fmt.Errorf("mint: unknown role %q", role)
	}

	token, err := identity.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer).
		Mint(core.Identity{UserID: userID, Role: core.Role(role)}, time.Now(), 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// setupInfra picks Redis for the active-token registry and event stream when
// a URL is configured, in-memory equivalents otherwise.
func setupInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.ActiveTokenStore, message.Publisher, func(), error) {
	wmLogger := watermill.NewSlogLogger(log)

	if cfg.Redis.URL == "" {
		log.Info("redis_disabled", slog.String("store", "memory"))
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return store.NewMemoryStore(), pubSub, func() { _ = pubSub.Close() }, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wmLogger)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	log.Info("redis_connected", slog.String("addr", opts.Addr))

	closeFn := func() {
		_ = publisher.Close()
		_ = client.Close()
	}
	return store.NewRedisStore(client, store.DefaultKeyPrefix), publisher, closeFn, nil
}
