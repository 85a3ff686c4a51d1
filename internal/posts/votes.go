package posts

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
	"github.com/steemit/postrank/pkg/telemetry"
)

// VoteAggregator propagates a post's vote tally into every vote index
type VoteAggregator struct {
	sets    store.SortedSets
	posts   PostStore
	topics  TopicStore
	logger  *zap.Logger
	applied metric.Int64Counter
}

// NewVoteAggregator creates a new vote aggregator
func NewVoteAggregator(sets store.SortedSets, posts PostStore, topics TopicStore, logger *zap.Logger) *VoteAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "vote-aggregator"))

	applied, err := telemetry.Meter().Int64Counter("postrank.votes.applied",
		metric.WithDescription("Vote tallies propagated into the vote indices"))
	if err != nil {
		logger.Warn("Failed to create vote counter", zap.Error(err))
	}

	return &VoteAggregator{
		sets:    sets,
		posts:   posts,
		topics:  topics,
		logger:  logger,
		applied: applied,
	}
}

// UpdatePostVoteCount writes vc into the per-user, per-topic (or topic and
// category, for a main post) and global vote indices and stores the counters
// on the post. A tally without pid or tid is ignored.
//
// The sub-updates run concurrently and all run to completion; the first
// error is returned and nothing is rolled back.
func (a *VoteAggregator) UpdatePostVoteCount(ctx context.Context, vc models.VoteCount) error {
	if vc.PID == 0 || vc.TID == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "posts.update_vote_count", trace.WithAttributes(
		attribute.Int64("pid", vc.PID),
		attribute.Int64("tid", vc.TID),
		attribute.Int64("votes", vc.Votes),
	))
	defer span.End()

	var g errgroup.Group
	g.Go(func() error {
		return a.updateUserIndex(ctx, vc)
	})
	g.Go(func() error {
		return a.updateTopicIndex(ctx, vc)
	})
	g.Go(func() error {
		if err := a.sets.SortedSetAdd(ctx, KeyPostsByVotes, float64(vc.Votes), models.IDString(vc.PID)); err != nil {
			return fmt.Errorf("failed to update %s: %w", KeyPostsByVotes, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.posts.SetPostFields(ctx, vc.PID, models.VoteFields(vc.Upvotes, vc.Downvotes)); err != nil {
			return fmt.Errorf("failed to store votes of post %d: %w", vc.PID, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vote index update failed")
		return err
	}

	if a.applied != nil {
		a.applied.Add(ctx, 1)
	}
	a.logger.Debug("Vote indices updated",
		zap.Int64("pid", vc.PID),
		zap.Int64("tid", vc.TID),
		zap.Int64("votes", vc.Votes))
	return nil
}

// updateUserIndex keeps the post in its author's index only while votes > 0
func (a *VoteAggregator) updateUserIndex(ctx context.Context, vc models.VoteCount) error {
	if vc.UID == 0 {
		return nil
	}
	key := UserPostsVotesKey(vc.UID)
	member := models.IDString(vc.PID)

	var err error
	if vc.Votes > 0 {
		err = a.sets.SortedSetAdd(ctx, key, float64(vc.Votes), member)
	} else {
		err = a.sets.SortedSetRemove(ctx, key, member)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

// updateTopicIndex mirrors a main post's votes onto its topic and category,
// and indexes any other post in its topic's vote set
func (a *VoteAggregator) updateTopicIndex(ctx context.Context, vc models.VoteCount) error {
	topic, err := a.topics.GetTopicFields(ctx, vc.TID, []string{models.TopicFieldMainPID, models.TopicFieldCID})
	if err != nil {
		return fmt.Errorf("failed to load topic %d: %w", vc.TID, err)
	}

	if topic == nil || topic.MainPID != vc.PID {
		key := TopicPostsVotesKey(vc.TID)
		if err := a.sets.SortedSetAdd(ctx, key, float64(vc.Votes), models.IDString(vc.PID)); err != nil {
			return fmt.Errorf("failed to update %s: %w", key, err)
		}
		return nil
	}

	tid := models.IDString(vc.TID)
	score := float64(vc.Votes)

	var g errgroup.Group
	g.Go(func() error {
		if err := a.topics.SetTopicFields(ctx, vc.TID, models.VoteFields(vc.Upvotes, vc.Downvotes)); err != nil {
			return fmt.Errorf("failed to store votes of topic %d: %w", vc.TID, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.sets.SortedSetAdd(ctx, KeyTopicsVotes, score, tid); err != nil {
			return fmt.Errorf("failed to update %s: %w", KeyTopicsVotes, err)
		}
		return nil
	})
	if topic.CID != 0 {
		g.Go(func() error {
			key := CategoryTopicsVotesKey(topic.CID)
			if err := a.sets.SortedSetAdd(ctx, key, score, tid); err != nil {
				return fmt.Errorf("failed to update %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RecordVote applies vote deltas to a stored post and refreshes its indices.
// It returns nil without error when the post does not exist.
//
// The read-modify-write is not atomic; concurrent callers are last-write-wins.
func (a *VoteAggregator) RecordVote(ctx context.Context, pid int64, upDelta, downDelta int64) (*models.Post, error) {
	posts, err := a.posts.GetPosts(ctx, []int64{pid})
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", pid, err)
	}
	if len(posts) == 0 || posts[0] == nil {
		return nil, nil
	}

	post := posts[0]
	post.Upvotes = clampCounter(post.Upvotes + upDelta)
	post.Downvotes = clampCounter(post.Downvotes + downDelta)

	if err := a.UpdatePostVoteCount(ctx, post.VoteCount()); err != nil {
		return nil, err
	}
	return post, nil
}

func clampCounter(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
