package moderation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	redisRatePrefix = "earnquest/rate/"
	redisWarnPrefix = "earnquest/warn/"
)

// RedisStore shares moderation state between bot replicas. Rate windows are
// sorted sets scored by unix nanoseconds; warnings are plain counters.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{Client: rdb}, nil
}

var _ Store = (*RedisStore)(nil)

func rateKey(userID int64) string { return redisRatePrefix + strconv.FormatInt(userID, 10) }
func warnKey(userID int64) string { return redisWarnPrefix + strconv.FormatInt(userID, 10) }

func (s *RedisStore) Hit(ctx context.Context, userID int64, now time.Time, window time.Duration, keep int) (int, error) {
	key := rateKey(userID)
	cutoff := now.Add(-window).UnixNano()

	var card *redis.IntCmd
	// MULTI/EXEC keeps the trim, insert and count atomic for one user
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixNano()),
			Member: uuid.NewString(),
		})
		if keep > 0 {
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-keep-1))
		}
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate window for %d: %w", userID, err)
	}
	return int(card.Val()), nil
}

// Sweep is a no-op; idle windows expire on their own.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	return 0, nil
}

// addWarningScript increments and, at the threshold, deletes the counter in
// one server-side step. It returns {count, crossed}.
var addWarningScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local threshold = tonumber(ARGV[1])
if threshold > 0 and n >= threshold then
  redis.call('DEL', KEYS[1])
  return {n, 1}
end
return {n, 0}
`)

func (s *RedisStore) AddWarning(ctx context.Context, userID int64, threshold int) (int, bool, error) {
	res, err := addWarningScript.Run(ctx, s.Client, []string{warnKey(userID)}, threshold).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("increment warnings for %d: %w", userID, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("increment warnings for %d: unexpected reply %v", userID, res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
