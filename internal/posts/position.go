package posts

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
	"github.com/steemit/postrank/pkg/telemetry"
)

// Resolver computes 1-based post positions inside topics.
// A position of 0 means the post has no known position.
type Resolver struct {
	sets     store.SortedSets
	settings SettingsProvider
	logger   *zap.Logger
}

// NewResolver creates a new position resolver
func NewResolver(sets store.SortedSets, settings SettingsProvider, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		sets:     sets,
		settings: settings,
		logger:   logger.With(zap.String("component", "position-resolver")),
	}
}

// GetPidIndex returns the position of pid in topic tid under the given sort
func (r *Resolver) GetPidIndex(ctx context.Context, pid, tid int64, sort string) (int64, error) {
	rank, err := r.sets.SortedSetRank(ctx, topicPostSet(tid, sort), models.IDString(pid), false)
	if err != nil {
		return 0, fmt.Errorf("failed to rank post %d: %w", pid, err)
	}
	return position(rank), nil
}

// GetPostIndices returns positions for refs, in input order, using the
// viewer's sort preference. Refs sharing one topic are resolved against a
// single set in one call.
func (r *Resolver) GetPostIndices(ctx context.Context, refs []models.PostRef, viewerID int64) ([]int64, error) {
	if len(refs) == 0 {
		return []int64{}, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "posts.get_post_indices", trace.WithAttributes(
		attribute.Int("count", len(refs)),
	))
	defer span.End()

	sort, err := r.sortFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	sets := make([]string, len(refs))
	members := make([]string, len(refs))
	unique := make(map[string]struct{})
	for i, ref := range refs {
		sets[i] = topicPostSet(ref.TID, sort)
		members[i] = models.IDString(ref.PID)
		unique[sets[i]] = struct{}{}
	}

	var ranks []store.Rank
	if len(unique) == 1 {
		ranks, err = r.sets.SortedSetRanks(ctx, sets[0], members, false)
	} else {
		ranks, err = r.sets.SortedSetsRanks(ctx, sets, members, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rank posts: %w", err)
	}
	if len(ranks) != len(refs) {
		return nil, fmt.Errorf("rank lookup returned %d results for %d posts", len(ranks), len(refs))
	}

	indices := make([]int64, len(ranks))
	for i, rank := range ranks {
		indices[i] = position(rank)
	}
	return indices, nil
}

func (r *Resolver) sortFor(ctx context.Context, viewerID int64) (string, error) {
	if r.settings == nil {
		return "", nil
	}
	settings, err := r.settings.GetSettings(ctx, viewerID)
	if err != nil {
		return "", fmt.Errorf("failed to load settings of user %d: %w", viewerID, err)
	}
	if settings == nil {
		return "", nil
	}
	return settings.TopicPostSort, nil
}

func topicPostSet(tid int64, sort string) string {
	if sort == SortMostVotes {
		return TopicPostsVotesKey(tid)
	}
	return TopicPostsKey(tid)
}

func position(rank store.Rank) int64 {
	if !rank.Found || rank.Index < 0 {
		return 0
	}
	return rank.Index + 1
}
