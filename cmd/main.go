package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apicontext "github.com/dtroode/eventpoll-server/internal/api/http/context"
	"github.com/dtroode/eventpoll-server/internal/api/http/handler"
	"github.com/dtroode/eventpoll-server/internal/api/http/router"
	httpserver "github.com/dtroode/eventpoll-server/internal/api/http/server"
	"github.com/dtroode/eventpoll-server/internal/calendar"
	"github.com/dtroode/eventpoll-server/internal/config"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
	"github.com/dtroode/eventpoll-server/internal/password"
	"github.com/dtroode/eventpoll-server/internal/repository/memory"
	"github.com/dtroode/eventpoll-server/internal/repository/postgres"
	"github.com/dtroode/eventpoll-server/internal/server"
	"github.com/dtroode/eventpoll-server/internal/service"
	storage "github.com/dtroode/eventpoll-server/internal/storage/minio"
	"github.com/dtroode/eventpoll-server/internal/timeutil"
	"github.com/dtroode/eventpoll-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	users         model.UserStore
	events        model.EventStore
	timeslots     model.TimeslotStore
	votes         model.VoteStore
	refreshTokens model.RefreshTokenStore
	tx            model.Transactor
	pinger        handler.Pinger
	close         func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("failed to resolve time zone", "error", err)
	}

	st, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err, "driver", cfg.Database.Driver)
	}
	defer st.close()

	calendars, err := openCalendarStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to initialize calendar storage", "error", err)
	}

	tokenService := service.NewTokenService(token.NewJWT(cfg.JWT.Secret), st.refreshTokens, logger)
	authService := service.NewAuth(st.users, password.NewBcrypt(0), tokenService, logger)
	eventService := service.NewEvent(
		st.users,
		st.events,
		st.timeslots,
		st.votes,
		st.tx,
		calendar.NewICS(),
		calendars,
		logger,
	)

	r := router.New(
		eventService,
		authService,
		tokenService,
		apicontext.NewManager(),
		timeutil.NewParser(loc),
		st.pinger,
		router.Config{
			CORSOrigins:   cfg.HTTP.CORSOrigins,
			AuthRateLimit: cfg.HTTP.AuthRateLimit,
			AuthRateBurst: cfg.HTTP.AuthRateBurst,
		},
		logger,
	)
	httpServer := httpserver.NewHTTPServer(r.Register(), cfg.HTTP.Address)
	sl := server.NewSecurityLayer(cfg.HTTP)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg config.Database, logger *logger.Logger) (stores, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		st := memory.NewStore()
		return stores{
			users:         memory.NewUserRepository(st),
			events:        memory.NewEventRepository(st),
			timeslots:     memory.NewTimeslotRepository(st),
			votes:         memory.NewVoteRepository(st),
			refreshTokens: memory.NewRefreshTokenRepository(st),
			tx:            st,
			close:         func() {},
		}, nil
	}

	db, err := postgres.NewConnection(ctx, cfg.DSN)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:         postgres.NewUserRepository(db),
		events:        postgres.NewEventRepository(db),
		timeslots:     postgres.NewTimeslotRepository(db),
		votes:         postgres.NewVoteRepository(db),
		refreshTokens: postgres.NewRefreshTokenRepository(db),
		tx:            postgres.NewTxManager(db),
		pinger:        db,
		close: func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		},
	}, nil
}

// openCalendarStorage returns nil when object storage is disabled.
func openCalendarStorage(ctx context.Context, cfg config.Storage, logger *logger.Logger) (model.Storage, error) {
	if !cfg.Enabled {
		logger.Info("calendar storage disabled, files are rendered on request")
		return nil, nil
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	client, err := storage.NewClient(ctx, minioClient, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
