package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/meridianhq/searchcore/internal/db"
)

// LPush appends values to the head of a list.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	cmd := s.b().Lpush().Key(key).Element(values...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// BRPop pops from the tail of a list, blocking up to timeout. The second
// return is false when the timeout elapsed with nothing to pop.
func (s *Store) BRPop(ctx context.Context, key string, timeout time.Duration) (string, bool, error) {
	cmd := s.b().Brpop().Key(key).Timeout(timeout.Seconds()).Build()
	arr, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, &db.Error{Op: db.OpBRPop, Err: err}
	}
	// BRPOP replies [key, value].
	if len(arr) < 2 {
		return "", false, nil
	}
	v, err := arr[1].ToString()
	if err != nil {
		return "", false, &db.Error{Op: db.OpBRPop, Err: err}
	}
	return v, true, nil
}

// LLen returns the length of a list.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}
