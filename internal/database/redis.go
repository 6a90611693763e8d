package database

import (
	"context"

	"luckyaces-backend/config"

	"github.com/go-redis/redis/v8"
)

var (
	// RedisClient backs the user cache, the logout token denylist and the
	// password-reset rate limiter. Tests swap in miniredis or leave it nil.
	RedisClient *redis.Client
	Ctx         = context.Background()
)

func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	_, err := RedisClient.Ping(Ctx).Result()
	return err
}
