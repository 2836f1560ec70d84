package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edulms/admin-console/pkg/config"
)

// ErrNoSession is returned by Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// TokenStore persists exactly two values, cleared together: the bearer
// token and the display email decoded from it.
type TokenStore interface {
	Save(token, email string) error
	Load() (token, email string, err error)
	Clear() error
}

// TokenSource adapts a TokenStore to the transport, reading the stored
// token at the start of every authenticated call.
type TokenSource struct {
	store TokenStore
}

// NewTokenSource wraps the store for use by the API client.
func NewTokenSource(store TokenStore) *TokenSource {
	return &TokenSource{store: store}
}

// Token returns the stored bearer token, if any.
func (s *TokenSource) Token() (string, bool) {
	token, _, err := s.store.Load()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

type fileSession struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// FileStore keeps the session in a JSON file, the console's analogue of
// browser storage.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(token, email string) error {
	payload, err := json.Marshal(fileSession{Token: token, Email: email})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("prepare session directory: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (string, string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNoSession
		}
		return "", "", fmt.Errorf("read session file: %w", err)
	}
	var stored fileSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return "", "", fmt.Errorf("decode session file: %w", err)
	}
	if stored.Token == "" {
		return "", "", ErrNoSession
	}
	return stored.Token, stored.Email, nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

const redisSessionKey = "admin-console:session"

// RedisStore keeps the session in redis so several shells on different
// hosts can share one operator session.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(token, email string) error {
	ctx := context.Background()
	return s.client.HSet(ctx, redisSessionKey, "token", token, "email", email).Err()
}

func (s *RedisStore) Load() (string, string, error) {
	ctx := context.Background()
	values, err := s.client.HGetAll(ctx, redisSessionKey).Result()
	if err != nil {
		return "", "", fmt.Errorf("load session from redis: %w", err)
	}
	if values["token"] == "" {
		return "", "", ErrNoSession
	}
	return values["token"], values["email"], nil
}

func (s *RedisStore) Clear() error {
	return s.client.Del(context.Background(), redisSessionKey).Err()
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
