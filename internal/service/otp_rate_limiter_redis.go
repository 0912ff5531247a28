package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisLimiterPrefix  = "gradnet:otp:rl:"
	redisLimiterTimeout = 500 * time.Millisecond
)

// KEYS[1] = zset de intentos; ARGV = now_ms, cutoff_ms, window_ms, max, member.
// Los argumentos llegan como texto para no depender del formato numerico de Lua.
const redisSlidingWindowScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[4]) then
  return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[5])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisOTPRateLimiter comparte la ventana entre instancias de la API.
type redisOTPRateLimiter struct {
	logger    *zap.Logger
	client    redisEvaler
	window    time.Duration
	max       int
	now       func() time.Time
	newMember func() string
}

// NewRedisOTPRateLimiter devuelve nil si no hay cliente; si Redis falla en
// tiempo de ejecucion la solicitud se deja pasar y queda registrado.
func NewRedisOTPRateLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	return newRedisRateLimiter(logger, client, window, max)
}

func newRedisRateLimiter(logger *zap.Logger, client redisEvaler, window time.Duration, max int) *redisOTPRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		logger:    logger,
		client:    client,
		window:    window,
		max:       max,
		now:       func() time.Time { return time.Now().UTC() },
		newMember: uuid.NewString,
	}
}

func (l *redisOTPRateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = normalizeLimiterKey(key)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, redisLimiterTimeout)
	defer cancel()

	now := l.now()
	allowed, err := l.client.Eval(ctx, redisSlidingWindowScript, []string{redisLimiterPrefix + key},
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(now.Add(-l.window).UnixMilli(), 10),
		strconv.FormatInt(l.window.Milliseconds(), 10),
		strconv.Itoa(l.max),
		l.newMember(),
	).Int()
	if err != nil {
		l.logger.Warn("otp rate limiter unavailable, allowing request", zap.Error(err), zap.String("usn", key))
		return true
	}
	return allowed == 1
}
