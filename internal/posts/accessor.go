package posts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
)

// Gateway is the existence and paging entry point used to walk the post set
type Gateway interface {
	Exists(ctx context.Context, pid int64) (bool, error)
	GetPidsFromSet(ctx context.Context, set string, start, stop interface{}, reverse bool) ([]int64, error)
}

var _ Gateway = (*Accessor)(nil)

// Accessor reads and writes post records and the global post set
type Accessor struct {
	sets   store.SortedSets
	posts  PostStore
	logger *zap.Logger
}

// NewAccessor creates a new post accessor
func NewAccessor(sets store.SortedSets, posts PostStore, logger *zap.Logger) *Accessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accessor{
		sets:   sets,
		posts:  posts,
		logger: logger.With(zap.String("component", "post-accessor")),
	}
}

// Exists reports whether pid is in the global post set
func (a *Accessor) Exists(ctx context.Context, pid int64) (bool, error) {
	ok, err := a.sets.IsSortedSetMember(ctx, KeyPostsByTime, models.IDString(pid))
	if err != nil {
		return false, fmt.Errorf("failed to check post %d: %w", pid, err)
	}
	return ok, nil
}

// ExistsMany reports existence for each pid, in input order
func (a *Accessor) ExistsMany(ctx context.Context, pids []int64) ([]bool, error) {
	if len(pids) == 0 {
		return []bool{}, nil
	}
	members := make([]string, len(pids))
	for i, pid := range pids {
		members[i] = models.IDString(pid)
	}
	found, err := a.sets.IsSortedSetMembers(ctx, KeyPostsByTime, members)
	if err != nil {
		return nil, fmt.Errorf("failed to check posts: %w", err)
	}
	return found, nil
}

// GetPidsFromSet lists pids of an ordered set between start and stop.
// Indices that are not integers yield an empty result without touching the store.
func (a *Accessor) GetPidsFromSet(ctx context.Context, set string, start, stop interface{}, reverse bool) ([]int64, error) {
	from, ok := models.ToInt64(start)
	if !ok {
		return []int64{}, nil
	}
	to, ok := models.ToInt64(stop)
	if !ok {
		return []int64{}, nil
	}

	members, err := a.sets.SortedSetRange(ctx, set, from, to, reverse)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", set, err)
	}

	pids := make([]int64, 0, len(members))
	for _, m := range members {
		pid := models.NormalizeID(m)
		if pid == 0 {
			a.logger.Debug("Skipping non-numeric member", zap.String("set", set), zap.String("member", m))
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// GetPostsByIDs loads posts in input order; missing posts are nil
func (a *Accessor) GetPostsByIDs(ctx context.Context, pids []int64) ([]*models.Post, error) {
	if len(pids) == 0 {
		return []*models.Post{}, nil
	}
	posts, err := a.posts.GetPosts(ctx, pids)
	if err != nil {
		return nil, err
	}
	if len(posts) != len(pids) {
		return nil, fmt.Errorf("post store returned %d records for %d pids", len(posts), len(pids))
	}
	return posts, nil
}

// SetPostFields updates stored fields of a post
func (a *Accessor) SetPostFields(ctx context.Context, pid int64, fields map[string]interface{}) error {
	if err := a.posts.SetPostFields(ctx, pid, fields); err != nil {
		return fmt.Errorf("failed to update post %d: %w", pid, err)
	}
	return nil
}
