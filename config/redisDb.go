package config

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	redisMu sync.RWMutex
	rdb     *redis.Client
	locker  *redislock.Client
)

// GetRedisDB returns nil when redis is not configured or not connected yet.
func GetRedisDB() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return rdb
}

func GetRedisLock() *redislock.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return locker
}

func setRedis(client *redis.Client) {
	redisMu.Lock()
	defer redisMu.Unlock()
	rdb = client
	if client != nil {
		locker = redislock.New(client)
	} else {
		locker = nil
	}
}

// ConnectRedis makes a single connection attempt.
func ConnectRedis(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0, // use default DB
		PoolSize: 100,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	setRedis(client)
	return nil
}

// ConnectRedisWithRetry connects in the background; redis is optional, so an empty
// address disables it.
func ConnectRedisWithRetry(ctx context.Context, addr string) {
	logger := GetLogger()
	if addr == "" {
		logger.WithFields(logrus.Fields{"field": "redis"}).Info("REDIS_ADDRESS not set; redis disabled")
		return
	}

	var attempt int
	for {
		attempt++
		err := ConnectRedis(ctx, addr)
		if err == nil {
			logger.WithFields(logrus.Fields{
				"field":   "redis",
				"addr":    addr,
				"attempt": attempt,
			}).Info("connected to redis")
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "redis",
			"addr":    addr,
			"attempt": attempt,
		}).Warn("failed to connect redis; retrying in " + sleep.String() + ": " + err.Error())

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

func CloseRedis() {
	if client := GetRedisDB(); client != nil {
		_ = client.Close()
	}
	setRedis(nil)
}
