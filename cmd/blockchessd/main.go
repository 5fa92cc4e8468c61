package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/blockchess/internal/api"
	"github.com/park285/blockchess/internal/blockclock"
	"github.com/park285/blockchess/internal/config"
	"github.com/park285/blockchess/internal/ledger"
	"github.com/park285/blockchess/internal/msgcat"
	"github.com/park285/blockchess/internal/obslog"
	"github.com/park285/blockchess/internal/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(opts)

	mgr := ledger.NewManager(rdb, rules.NewEngine())
	if cfg.DatabaseURL != "" {
		archive, err := ledger.NewArchive(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		defer archive.Close()
		mgr.AttachArchive(archive)
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages init error: %v", err)
	}

	clock := blockclock.New(cfg.BlockGenesisUnix, cfg.BlockIntervalSec)
	srv := api.NewServer(mgr, clock, cat)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.ListenAddr) }()
	obslog.L().Info("listening", zap.String("addr", cfg.ListenAddr))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		obslog.L().Info("shutdown", zap.String("signal", s.String()))
		if err := srv.Shutdown(); err != nil {
			obslog.L().Error("shutdown_error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			obslog.L().Fatal("serve_error", zap.Error(err))
		}
	}
}
