package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps history in a capped Redis list so it survives restarts and
// is shared between replicas. Enabled by setting REDIS_ADDR; the in-memory
// store remains the default.
type Redis struct {
	cl  *redis.Client
	key string
	max int
}

func NewRedis(addr string, max int) *Redis {
	if max <= 0 {
		max = 50
	}
	return &Redis{
		cl:  redis.NewClient(&redis.Options{Addr: addr}),
		key: "adlens:history",
		max: max,
	}
}

func (r *Redis) Record(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if err := r.cl.LPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return r.cl.LTrim(ctx, r.key, 0, int64(r.max-1)).Err()
}

func (r *Redis) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 || n > r.max {
		n = r.max
	}
	raw, err := r.cl.LRange(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue // a malformed entry is not worth failing the read
		}
		out = append(out, e)
	}
	return out, nil
}
