package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gudangku/backend/internal/config"
	"gudangku/backend/internal/httpapi"
	"gudangku/backend/internal/ledger"
	"gudangku/backend/internal/snapshot"
	"gudangku/backend/internal/snapshot/memory"
	pgsnap "gudangku/backend/internal/snapshot/postgres"
	redissnap "gudangku/backend/internal/snapshot/redis"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slot, closers, err := openSnapshotSlot(ctx, cfg)
	if err != nil {
		log.Fatalf("%v; refusing to start with in-memory fallback", err)
	}

	ldg, err := ledger.Open(ctx, slot, cfg.SnapshotKey)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, ldg)
	api := httpapi.New(ldg, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("inventory backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// openSnapshotSlot picks the persistence backend from config. A configured
// durable backend that is unreachable is an error: the in-memory slot is
// only for explicit zero-config runs, never a silent replacement for the
// system of record.
func openSnapshotSlot(ctx context.Context, cfg config.Config) (snapshot.Store, []func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgsnap.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres unavailable (%v) and DATABASE_URL is set", err)
		}
		log.Println("snapshot slot: postgres")
		return pg, []func() error{pg.Close}, nil
	case cfg.RedisAddr != "":
		rds := redissnap.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rds.Ping(ctx); err != nil {
			_ = rds.Close()
			return nil, nil, fmt.Errorf("redis unavailable (%v) and REDIS_ADDR is set", err)
		}
		log.Println("snapshot slot: redis")
		return rds, []func() error{rds.Close}, nil
	default:
		log.Println("snapshot slot: in-memory")
		return memory.New(), nil, nil
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
