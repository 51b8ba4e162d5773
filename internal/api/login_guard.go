package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
)

// loginGuard 保存登录限流、失败锁定与刷新令牌黑名单，全部放在 Redis。
// Redis 不可用时限流与锁定放行，黑名单查询则按错误返回。
type loginGuard struct {
	redis         redis.UniversalClient
	ratePerHour   int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func newLoginGuard(client redis.UniversalClient, cfg config.APIConfig) *loginGuard {
	return &loginGuard{
		redis:         client,
		ratePerHour:   cfg.LoginRateLimitPerHour,
		lockThreshold: cfg.LoginLockThreshold,
		lockTTL:       cfg.LoginLockTTL,
		now:           time.Now,
	}
}

func loginRateKey(ip, email string, at time.Time) string {
	return fmt.Sprintf("hiring:login:rate:%s:%s:%s", ip, email, at.UTC().Format("2006010215"))
}

func loginFailKey(email string) string { return "hiring:login:fail:" + email }

func loginLockKey(email string) string { return "hiring:login:lock:" + email }

func refreshRevokedKey(jti string) string { return "hiring:auth:refresh:revoked:" + jti }

// allow 记录一次登录尝试，返回是否仍在本小时配额与锁定之外。
func (g *loginGuard) allow(ctx context.Context, ip, email string) (allowed bool, reason string) {
	if g.ratePerHour > 0 {
		count, err := incrWithTTL(ctx, g.redis, loginRateKey(ip, email, g.now()), time.Hour)
		if err == nil && count > int64(g.ratePerHour) {
			return false, "rate limit exceeded"
		}
	}
	if ttl, err := g.redis.TTL(ctx, loginLockKey(email)).Result(); err == nil && ttl > 0 {
		return false, "account temporarily locked"
	}
	return true, ""
}

// recordFailure 累计失败次数，达到阈值后锁定该邮箱 lockTTL。
func (g *loginGuard) recordFailure(ctx context.Context, email string) error {
	count, err := incrWithTTL(ctx, g.redis, loginFailKey(email), g.lockTTL)
	if err != nil {
		return err
	}
	if g.lockThreshold > 0 && count >= int64(g.lockThreshold) {
		return g.redis.Set(ctx, loginLockKey(email), "1", g.lockTTL).Err()
	}
	return nil
}

func (g *loginGuard) recordSuccess(ctx context.Context, email string) {
	_ = g.redis.Del(ctx, loginFailKey(email)).Err()
}

// isRevoked 判断刷新令牌是否已被注销或轮换。
func (g *loginGuard) isRevoked(ctx context.Context, jti string) (bool, error) {
	err := g.redis.Get(ctx, refreshRevokedKey(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check refresh token %s: %w", jti, err)
	}
}

// revoke 把 jti 放入黑名单直到令牌本身过期。
func (g *loginGuard) revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(g.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := g.redis.Set(ctx, refreshRevokedKey(jti), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke refresh token %s: %w", jti, err)
	}
	return nil
}

// incrWithTTL 在同一个事务管道里自增并在首次创建时设置过期时间。
func incrWithTTL(ctx context.Context, client redis.UniversalClient, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
