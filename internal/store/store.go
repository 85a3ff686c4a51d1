// Package store provides the ordered-set and object backends the post
// indices are kept in.
package store

import (
	"context"
	"errors"
)

var (
	// ErrStoreDisabled is returned when operations are attempted on a nil backend
	ErrStoreDisabled = errors.New("store is disabled")
)

// Rank is the 0-based position of a member in an ordered set.
// Found is false when the member is absent.
type Rank struct {
	Index int64
	Found bool
}

// SortedSets is the ordered index contract: named sets mapping member to score.
type SortedSets interface {
	SortedSetAdd(ctx context.Context, key string, score float64, member string) error
	SortedSetRemove(ctx context.Context, key string, member string) error
	SortedSetScore(ctx context.Context, key string, member string) (float64, bool, error)
	SortedSetRank(ctx context.Context, key string, member string, reverse bool) (Rank, error)
	// SortedSetRanks resolves many members against one set.
	SortedSetRanks(ctx context.Context, key string, members []string, reverse bool) ([]Rank, error)
	// SortedSetsRanks resolves members[i] against keys[i].
	SortedSetsRanks(ctx context.Context, keys []string, members []string, reverse bool) ([]Rank, error)
	SortedSetRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error)
	IsSortedSetMember(ctx context.Context, key string, member string) (bool, error)
	IsSortedSetMembers(ctx context.Context, key string, members []string) ([]bool, error)
}

// Objects is the hash store contract. Missing objects come back as empty maps.
type Objects interface {
	GetObjects(ctx context.Context, keys []string) ([]map[string]string, error)
	GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error)
	SetObjectFields(ctx context.Context, key string, fields map[string]interface{}) error
}

// Backend is a complete storage backend
type Backend interface {
	SortedSets
	Objects
	Health(ctx context.Context) error
	Close() error
}

func checkPairs(keys, members []string) error {
	if len(keys) != len(members) {
		return errors.New("keys and members length mismatch")
	}
	return nil
}
