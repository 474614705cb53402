package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"shortly.local/internal/platform/metrics"
)

// NotFoundSentinel 是负缓存哨兵值。不要用 "" 作哨兵——
// 会把“未命中”和“命中了不存在”混在一起。
const NotFoundSentinel = "__nil__"

// ShortlinkCache 是 code -> url 的两级读缓存：L1 本地（ristretto）+ L2 Redis。
//
// 使用边界（重要）：
// - 解析路径只允许消费负缓存：正命中不能替代那次原子计数
// - 预检查/预览这类不计数的读可以吃正缓存
// - 创建成功必须立刻写入（覆盖可能存在的负缓存），删除必须立刻失效
type ShortlinkCache struct {
	client   *redis.Client
	local    *LocalCache
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewShortlinkCache(client *redis.Client, local *LocalCache) *ShortlinkCache {
	return &ShortlinkCache{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

func redisKey(code string) string {
	return "sl:" + code
}

func (c *ShortlinkCache) Get(ctx context.Context, code string) (string, error) {
	// L1
	if c.local != nil {
		if url, ok := c.local.Get(code); ok {
			if url == NotFoundSentinel {
				metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
			} else {
				metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			}
			return url, nil
		}
	}

	// L2
	res, err := c.client.Get(ctx, redisKey(code)).Result()
	if err == redis.Nil {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if res == NotFoundSentinel {
		metrics.CacheOperations.WithLabelValues("l2", "hit_negative").Inc()
	} else {
		metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
	}

	// 回填 L1
	if c.local != nil {
		if res == NotFoundSentinel {
			c.local.SetNotFound(code)
		} else {
			c.local.Set(code, res)
		}
	}
	return res, nil
}

func (c *ShortlinkCache) Set(ctx context.Context, code, url string) error {
	if c.local != nil {
		c.local.Set(code, url)
	}
	return c.client.Set(ctx, redisKey(code), url, c.ttl).Err()
}

func (c *ShortlinkCache) Delete(ctx context.Context, code string) error {
	if c.local != nil {
		c.local.Del(code)
	}
	return c.client.Del(ctx, redisKey(code)).Err()
}

// SetNotFound 写入短 TTL 的负缓存，挡住对不存在短码的穿透。
func (c *ShortlinkCache) SetNotFound(ctx context.Context, code string) error {
	if c.local != nil {
		c.local.SetNotFound(code)
	}
	return c.client.Set(ctx, redisKey(code), NotFoundSentinel, c.emptyTTL).Err()
}

func (c *ShortlinkCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("local cache closed")
	}
}
