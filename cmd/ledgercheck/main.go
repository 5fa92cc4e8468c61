package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/blockchess/internal/ledger"
	"github.com/park285/blockchess/internal/rules"
)

// Smoke-checks the backing stores: Redis connectivity plus collection
// counts, and Postgres when DATABASE_URL is set.
func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Fatal("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping error: %v", err)
	}
	log.Println("redis ok")

	mgr := ledger.NewManager(rdb, rules.NewEngine())
	challenges, games, err := mgr.Counts(ctx)
	if err != nil {
		log.Fatalf("counts error: %v", err)
	}
	log.Printf("challenges=%d games=%d", challenges, games)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("DATABASE_URL not set; skipping archive check")
		return
	}
	archive, err := ledger.NewArchive(dbURL)
	if err != nil {
		log.Fatalf("archive init error: %v", err)
	}
	defer archive.Close()
	if err := archive.Ping(ctx); err != nil {
		log.Fatalf("archive ping error: %v", err)
	}
	log.Println("archive ok")
}
