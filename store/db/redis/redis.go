// Package redis implements the session store driver on Redis. Keys carry a
// TTL so abandoned sessions age out server-side even without a sweep.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pedalhaus/pedalhaus/store"
)

const keyPrefix = "conversation:"

// Driver is a Redis-backed session driver.
type Driver struct {
	client *goredis.Client
	ttl    time.Duration
}

// New creates a Redis driver. ttl bounds how long an idle session key
// lives; it should be at least the store's session TTL.
func New(client *goredis.Client, ttl time.Duration) (*Driver, error) {
	if client == nil {
		return nil, store.ErrInvalidConfig
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Driver{client: client, ttl: ttl}, nil
}

func (d *Driver) CreateSession(ctx context.Context, sess *store.Session) error {
	return d.PutSession(ctx, sess)
}

func (d *Driver) GetSession(ctx context.Context, id string) (*store.Session, error) {
	val, err := d.client.Get(ctx, keyPrefix+id).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get session")
	}
	var sess store.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &sess, nil
}

func (d *Driver) PutSession(ctx context.Context, sess *store.Session) error {
	val, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := d.client.Set(ctx, keyPrefix+sess.ID, val, d.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set session")
	}
	return nil
}

func (d *Driver) DeleteSession(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "redis del session")
	}
	return nil
}

func (d *Driver) ListSessions(ctx context.Context) ([]*store.Session, error) {
	var out []*store.Session
	iter := d.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := d.client.Get(ctx, iter.Val()).Result()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "redis get session")
		}
		var sess store.Session
		if err := json.Unmarshal([]byte(val), &sess); err != nil {
			continue
		}
		out = append(out, &sess)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan sessions")
	}
	return out, nil
}
