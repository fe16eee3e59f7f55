/*
Package redis provides a Redis-backed implementation of kvstore.Store.

PURPOSE:
  For deployments that already run Redis (the hosted predecessor of this
  system stored everything in a managed Redis KV). Maps the Store
  contract directly onto GET/SET/DEL/SADD/SREM/SMEMBERS.

USAGE:
  store := redis.New("localhost:6379", "")
  defer store.Close()

SEE ALSO:
  - kvstore/store.go: interface definition
  - kvstore/sqlite: default single-file store
*/
package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kensei/kintai-engine/kvstore"
)

// Store implements kvstore.Store on a Redis client.
type Store struct {
	client *goredis.Client
}

// New connects to the Redis server at addr.
func New(addr, password string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Store{client: client}
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kvstore.ErrNotFound
	}
	return val, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *Store) SAdd(ctx context.Context, set, member string) error {
	return s.client.SAdd(ctx, set, member).Err()
}

func (s *Store) SRem(ctx context.Context, set, member string) error {
	return s.client.SRem(ctx, set, member).Err()
}

func (s *Store) SMembers(ctx context.Context, set string) ([]string, error) {
	return s.client.SMembers(ctx, set).Result()
}

func (s *Store) Close() error {
	return s.client.Close()
}
