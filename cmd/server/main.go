package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"aulago/backend/internal/config"
	"aulago/backend/internal/db"
	internalhttp "aulago/backend/internal/http"
	"aulago/backend/internal/jobs"
	"aulago/backend/internal/repository"
	"aulago/backend/internal/service"
	"aulago/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	creds := service.NewCredentials(store, cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, join codes disabled: %v", err)
			redisClient = nil
		}
	}

	if cfg.LiveClassSweepEnabled {
		jobs.StartLiveClassSweep(ctx, cfg, store)
	}

	server := internalhttp.NewServer(cfg, store, creds, uploader, redisClient)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("aulago backend listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newUploader(ctx context.Context, cfg config.Config) (storage.Uploader, error) {
	if cfg.B2AccountID != "" && cfg.B2AppKey != "" && cfg.B2Bucket != "" {
		return storage.NewB2(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket, cfg.PublicBaseURL)
	}
	return storage.NewLocal(cfg.MediaDir, cfg.PublicBaseURL)
}
