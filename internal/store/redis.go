package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client used for the event queue and for the
// worker-maintained attendance tallies.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func tallyKey(studentID string) string {
	return "attendance:tally:" + studentID
}

// GetTally returns the per-status counts for a student. An empty map means
// the tally is cold and callers should fall back to the database.
func (r *Redis) GetTally(ctx context.Context, studentID string) (map[string]int64, error) {
	raw, err := r.Client.HGetAll(ctx, tallyKey(studentID)).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for status, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, nil
}

// SetTally overwrites a student's tally, used when warming from the database.
func (r *Redis) SetTally(ctx context.Context, studentID string, counts map[string]int64) error {
	fields := make(map[string]interface{}, len(counts))
	for status, n := range counts {
		fields[status] = n
	}
	if len(fields) == 0 {
		return nil
	}
	return r.Client.HSet(ctx, tallyKey(studentID), fields).Err()
}
