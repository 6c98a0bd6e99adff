package progress

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
)

// NewRedisClient 创建 api 和 seating worker 共用的 redis 客户端，验证码和进度都存在 0 号库
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
}

// NewStoreFromConfig 按配置中的过期时间和超时时间创建 Store
func NewStoreFromConfig(rdb redis.Cmdable, cfg *config.Config) *Store {
	return NewStore(
		rdb,
		time.Duration(cfg.Redis.ProgressExpiration)*time.Second,
		time.Duration(cfg.Redis.OperationExpiration)*time.Minute,
	)
}
