package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"librarydesk_backend/internals/configs"
)

// RDB stays nil when REDIS_URL is not set; callers must handle that.
var RDB *redis.Client

func ConnectRedis() {
	url := configs.GetEnv("REDIS_URL")
	if url == "" {
		log.Println("⚠️ REDIS_URL not set, scan debounce disabled")
		return
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("❌ invalid REDIS_URL: %v", err)
		return
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ redis ping failed, continuing without it: %v", err)
		_ = rdb.Close()
		return
	}
	RDB = rdb
	log.Println("✅ Redis connected.")
}

func CloseRedis() {
	if RDB != nil {
		_ = RDB.Close()
	}
}
