// Package redis backs the search result cache with rueidis.
package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

var _ db.KVStore = (*Store)(nil)

// ClientName is reported by CLIENT LIST.
const ClientName = "facilityfinder"

const defaultDialTimeout = 3 * time.Second

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func (c Config) clientOption() (rueidis.ClientOption, error) {
	if len(c.Addrs) == 0 {
		return rueidis.ClientOption{}, errors.New("cache addrs is required")
	}
	dial := c.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	return rueidis.ClientOption{
		InitAddress: c.Addrs,
		Username:    c.Username,
		Password:    c.Password,
		SelectDB:    c.DB,
		ClientName:  ClientName,
		// Entries are short-lived; no client-side tracking.
		DisableCache: true,
		Dialer:       net.Dialer{Timeout: dial, KeepAlive: time.Minute},
	}, nil
}

// Store reads and writes cached result sets.
type Store struct {
	c rueidis.Client
}

// NewStore dials Redis.
func NewStore(cfg Config) (*Store, error) {
	opt, err := cfg.clientOption()
	if err != nil {
		return nil, err
	}
	c, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, &db.Error{Op: db.OpPing, Err: err}
	}
	return &Store{c: c}, nil
}

// Ping issues PING.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.c.Do(ctx, s.c.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady blocks until Redis answers PING or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitReady(ctx, timeout, "cache", s)
}

// Get returns db.ErrKeyNotFound on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.c.Do(ctx, s.c.B().Get().Key(key).Build()).AsBytes()
	switch {
	case err == nil:
		return b, nil
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	default:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
}

// SetWithTTL writes value with a whole-second expiry; ttl below one second is rounded up.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ttl = max(ttl, time.Second)
	cmd := s.c.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.c.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() { s.c.Close() }
