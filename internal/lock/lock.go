package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLocker serializa operaciones sobre el mismo pedido o usuario entre réplicas.
type RedisLocker struct {
	rdb    *redis.Client
	client *redislock.Client
	logger logrus.FieldLogger
}

func NewRedisLocker(addr string, logger logrus.FieldLogger) *RedisLocker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		PoolSize: 20,
	})
	return &RedisLocker{
		rdb:    rdb,
		client: redislock.New(rdb),
		logger: logger,
	}
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Obtain espera hasta ~2s por el lock; si sigue tomado devuelve
// service.ErrLockOcupado. El release usa un contexto propio para liberar
// aunque la petición ya haya terminado.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("lock %s: %w", key, service.ErrLockOcupado)
	}
	if err != nil {
		return nil, fmt.Errorf("obteniendo lock %s: %w", key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WithError(err).WithField("key", key).Warn("no se pudo liberar el lock")
		}
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}
