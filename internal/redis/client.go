package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"shield_go/internal/config"
)

// ErrCacheMiss indica que a chave não existe ou expirou
var ErrCacheMiss = errors.New("chave não encontrada")

// Store abstrai as operações do Redis usadas pelo serviço (substituível em testes)
type Store interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Publish(ctx context.Context, channel, payload string) error
	Close() error
}

// RedisStore implementa Store sobre go-redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore cria o cliente para o endereço configurado
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &RedisStore{client: client}
}

// Ping implementa Store
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get implementa Store
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Set implementa Store
func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Publish implementa Store
func (r *RedisStore) Publish(ctx context.Context, channel, payload string) error {
	return r.client.Publish(ctx, channel, payload).Err()
}

// Close implementa Store
func (r *RedisStore) Close() error {
	return r.client.Close()
}
