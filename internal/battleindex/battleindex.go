// Package battleindex keeps a Redis sorted set of active battle deadlines so
// the cleanup sweep can find due battles without scanning Mongo. Redis being
// unavailable disables the index; callers fall back to the Mongo
// isActive/endTime index.
package battleindex

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const activeKey = "battles:active"

var rdb *redis.Client

// Init connects the index to Redis. A failed ping leaves the index disabled
// rather than failing the boot.
func Init(addr, password string, db int) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, battle expiry index disabled")
		return
	}
	rdb = client
}

// Enabled reports whether the index is backed by a live Redis connection.
func Enabled() bool {
	return rdb != nil
}

// Track records an active battle's deadline.
func Track(ctx context.Context, battleID string, endTime time.Time) {
	if rdb == nil {
		return
	}
	err := rdb.ZAdd(ctx, activeKey, redis.Z{
		Score:  float64(endTime.Unix()),
		Member: battleID,
	}).Err()
	if err != nil {
		log.Warn().Err(err).Str("battleId", battleID).Msg("failed to track battle deadline")
	}
}

// Untrack drops a battle from the index (deleted or deactivated early).
func Untrack(ctx context.Context, battleID string) {
	if rdb == nil {
		return
	}
	if err := rdb.ZRem(ctx, activeKey, battleID).Err(); err != nil {
		log.Warn().Err(err).Str("battleId", battleID).Msg("failed to untrack battle")
	}
}

// Due returns the ids of battles whose deadline has passed.
func Due(ctx context.Context, now time.Time) []string {
	if rdb == nil {
		return nil
	}
	ids, err := rdb.ZRangeByScore(ctx, activeKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		log.Warn().Err(err).Msg("failed to query due battles")
		return nil
	}
	return ids
}

// Sweep removes every entry with a deadline at or before now. Called after
// the authoritative Mongo update has flipped the battles inactive.
func Sweep(ctx context.Context, now time.Time) {
	if rdb == nil {
		return
	}
	max := strconv.FormatInt(now.Unix(), 10)
	if err := rdb.ZRemRangeByScore(ctx, activeKey, "-inf", max).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to sweep battle index")
	}
}
