package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the cookie jar in Redis, keyed per account. Useful when
// several juradoc instances should share one portal login instead of each
// burning a handshake.
type RedisStore struct {
	client     *redis.Client
	key        string
	authCookie string
}

func NewRedisStore(addr, password string, db int, account, authCookie string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		client:     rdb,
		key:        fmt.Sprintf("juradoc:session:%s", account),
		authCookie: authCookie,
	}
}

func (s *RedisStore) Save(cookies []Cookie) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return s.client.Set(context.Background(), s.key, data, 0).Err()
}

func (s *RedisStore) Load() ([]Cookie, bool) {
	val, err := s.client.Get(context.Background(), s.key).Result()
	if err != nil {
		return nil, false
	}
	var cookies []Cookie
	if err := json.Unmarshal([]byte(val), &cookies); err != nil {
		return nil, false
	}
	if !hasLiveAuthCookie(cookies, s.authCookie) {
		return nil, false
	}
	return cookies, true
}
