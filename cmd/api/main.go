package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/commission"
	"github.com/finveiculos/painel-representantes/internal/config"
	"github.com/finveiculos/painel-representantes/internal/contract"
	"github.com/finveiculos/painel-representantes/internal/db"
	internalhttp "github.com/finveiculos/painel-representantes/internal/http"
	"github.com/finveiculos/painel-representantes/internal/notify"
	"github.com/finveiculos/painel-representantes/internal/representative"
	"github.com/finveiculos/painel-representantes/internal/service"
	"github.com/finveiculos/painel-representantes/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	files, err := newFileStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	policy := storage.Policy{MaxBytes: cfg.Upload.MaxBytes, Extensions: cfg.Upload.Extensions}
	notifier := notify.New(cfg.SlackWebhookURL)

	adminRepo := admin.NewRepository(pool)
	representativeRepo := representative.NewRepository(pool)
	contractRepo := contract.NewRepository(pool)
	commissionRepo := commission.NewRepository(pool)

	adminService := service.NewAdminService(adminRepo)
	commissionService := commission.NewService(commissionRepo, redisClient)
	contractService := contract.NewService(contractRepo, representativeRepo, commissionService, files, policy)
	representativeService := representative.NewService(representativeRepo, contractService, adminService, files, notifier, policy)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(adminRepo, representativeService, redisClient, jwtManager, cfg.JWTRefreshTTL)

	handler := internalhttp.NewRouter(cfg, internalhttp.Dependencies{
		JWT:             jwtManager,
		Auth:            authService,
		Admins:          adminService,
		Representatives: representativeService,
		Contracts:       contractService,
		Commission:      commissionService,
		ReadyChecks: map[string]func(ctx context.Context) error{
			"db":    pool.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("storage", cfg.Storage.Provider).Bool("slack", notifier != nil).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newFileStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Provider {
	case "", "noop":
		log.Warn().Msg("armazenamento de arquivos desativado; uploads responderão 503")
		return storage.NoopStore{}, nil
	case "s3", "r2", "cloudflare-r2":
		buckets := make(map[storage.Bucket]string, len(cfg.BucketNames))
		for logical, physical := range cfg.BucketNames {
			buckets[storage.Bucket(logical)] = physical
		}
		return storage.NewS3Store(storage.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicDomain: cfg.S3PublicURL,
			BucketNames:  buckets,
		})
	default:
		return nil, fmt.Errorf("provedor %s não suportado", cfg.Provider)
	}
}
