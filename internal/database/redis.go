package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Prefijo de las claves de lease de generación
const leaseKeyPrefix = "facture:lease:"

// releaseLeaseScript borra la clave solo si el dueño coincide
var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis representa la conexión a Redis
type Redis struct {
	*redis.Client
}

// ConnectRedis establece la conexión a Redis
func ConnectRedis(cfg *config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	// Verificar conexión
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}

	return &Redis{client}, nil
}

// Close cierra la conexión a Redis
func (r *Redis) Close() error {
	return r.Client.Close()
}

// HealthCheck verifica la salud de Redis
func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// LeaseKey retorna la clave de lease de un registro
func LeaseKey(recordID string) string {
	return leaseKeyPrefix + recordID
}

// AcquireLease toma el lease de generación de un registro.
// Retorna false si otro dueño lo tiene todavía.
func (r *Redis) AcquireLease(ctx context.Context, recordID, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ok, err := r.SetNX(ctx, LeaseKey(recordID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error acquiring lease: %w", err)
	}
	return ok, nil
}

// ReleaseLease libera el lease si owner sigue siendo el dueño.
// Un owner vacío libera el lease sin importar quién lo tenga.
func (r *Redis) ReleaseLease(ctx context.Context, recordID, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := LeaseKey(recordID)
	if owner == "" {
		return r.Del(ctx, key).Err()
	}

	if err := releaseLeaseScript.Run(ctx, r.Client, []string{key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("error releasing lease: %w", err)
	}
	return nil
}

// LogStats registra las estadísticas del pool de Redis
func (r *Redis) LogStats(logger *logrus.Logger) {
	stats := r.PoolStats()
	logger.WithFields(logrus.Fields{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}).Info("Redis pool statistics")
}
