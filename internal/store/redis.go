package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/steemit/postrank/pkg/config"
)

// Redis is a Backend on top of Redis sorted sets and hashes
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", opt.Addr))

	return NewRedisFromClient(client, logger), nil
}

// NewRedisFromClient wraps an existing client
func NewRedisFromClient(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}

// SortedSetAdd adds or updates a member's score
func (r *Redis) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	if r == nil || r.client == nil {
		return ErrStoreDisabled
	}
	return r.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
}

// SortedSetRemove removes a member
func (r *Redis) SortedSetRemove(ctx context.Context, key string, member string) error {
	if r == nil || r.client == nil {
		return ErrStoreDisabled
	}
	return r.client.ZRem(ctx, key, member).Err()
}

// SortedSetScore returns a member's score
func (r *Redis) SortedSetScore(ctx context.Context, key string, member string) (float64, bool, error) {
	if r == nil || r.client == nil {
		return 0, false, ErrStoreDisabled
	}
	score, err := r.client.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// SortedSetRank returns a member's 0-based rank
func (r *Redis) SortedSetRank(ctx context.Context, key string, member string, reverse bool) (Rank, error) {
	if r == nil || r.client == nil {
		return Rank{}, ErrStoreDisabled
	}
	var cmd *redis.IntCmd
	if reverse {
		cmd = r.client.ZRevRank(ctx, key, member)
	} else {
		cmd = r.client.ZRank(ctx, key, member)
	}
	return rankResult(cmd)
}

// SortedSetRanks resolves many members against one set in a single pipeline
func (r *Redis) SortedSetRanks(ctx context.Context, key string, members []string, reverse bool) ([]Rank, error) {
	keys := make([]string, len(members))
	for i := range members {
		keys[i] = key
	}
	return r.SortedSetsRanks(ctx, keys, members, reverse)
}

// SortedSetsRanks resolves members[i] against keys[i] in a single pipeline
func (r *Redis) SortedSetsRanks(ctx context.Context, keys []string, members []string, reverse bool) ([]Rank, error) {
	if r == nil || r.client == nil {
		return nil, ErrStoreDisabled
	}
	if err := checkPairs(keys, members); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []Rank{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i := range keys {
		if reverse {
			cmds[i] = pipe.ZRevRank(ctx, keys[i], members[i])
		} else {
			cmds[i] = pipe.ZRank(ctx, keys[i], members[i])
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	ranks := make([]Rank, len(cmds))
	for i, cmd := range cmds {
		rank, err := rankResult(cmd)
		if err != nil {
			return nil, err
		}
		ranks[i] = rank
	}
	return ranks, nil
}

// SortedSetRange returns members between start and stop (inclusive, negative from the end)
func (r *Redis) SortedSetRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	if r == nil || r.client == nil {
		return nil, ErrStoreDisabled
	}
	if reverse {
		return r.client.ZRevRange(ctx, key, start, stop).Result()
	}
	return r.client.ZRange(ctx, key, start, stop).Result()
}

// IsSortedSetMember reports whether member is in the set
func (r *Redis) IsSortedSetMember(ctx context.Context, key string, member string) (bool, error) {
	_, found, err := r.SortedSetScore(ctx, key, member)
	return found, err
}

// IsSortedSetMembers reports membership for many members of one set
func (r *Redis) IsSortedSetMembers(ctx context.Context, key string, members []string) ([]bool, error) {
	if r == nil || r.client == nil {
		return nil, ErrStoreDisabled
	}
	if len(members) == 0 {
		return []bool{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.FloatCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.ZScore(ctx, key, member)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	result := make([]bool, len(cmds))
	for i, cmd := range cmds {
		err := cmd.Err()
		switch {
		case err == nil:
			result[i] = true
		case errors.Is(err, redis.Nil):
		default:
			return nil, err
		}
	}
	return result, nil
}

// GetObjects loads many hashes; missing hashes come back empty
func (r *Redis) GetObjects(ctx context.Context, keys []string) ([]map[string]string, error) {
	if r == nil || r.client == nil {
		return nil, ErrStoreDisabled
	}
	if len(keys) == 0 {
		return []map[string]string{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	objects := make([]map[string]string, len(cmds))
	for i, cmd := range cmds {
		objects[i] = cmd.Val()
	}
	return objects, nil
}

// GetObjectFields loads selected fields of a hash; absent fields are omitted
func (r *Redis) GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error) {
	if r == nil || r.client == nil {
		return nil, ErrStoreDisabled
	}
	values, err := r.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(fields))
	for i, v := range values {
		if s, ok := v.(string); ok {
			result[fields[i]] = s
		}
	}
	return result, nil
}

// SetObjectFields writes fields into a hash
func (r *Redis) SetObjectFields(ctx context.Context, key string, fields map[string]interface{}) error {
	if r == nil || r.client == nil {
		return ErrStoreDisabled
	}
	if len(fields) == 0 {
		return nil
	}
	return r.client.HSet(ctx, key, fields).Err()
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Health checks Redis health
func (r *Redis) Health(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrStoreDisabled
	}
	return r.client.Ping(ctx).Err()
}

func rankResult(cmd *redis.IntCmd) (Rank, error) {
	index, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return Rank{}, nil
	}
	if err != nil {
		return Rank{}, err
	}
	return Rank{Index: index, Found: true}, nil
}
