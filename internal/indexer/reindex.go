// Package indexer rebuilds the vote indices from stored post records.
package indexer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/posts"
	"github.com/steemit/postrank/pkg/config"
)

// PostSource pages the global post set and loads post records
type PostSource interface {
	posts.Gateway
	GetPostsByIDs(ctx context.Context, pids []int64) ([]*models.Post, error)
}

// VoteUpdater re-applies a vote tally
type VoteUpdater interface {
	UpdatePostVoteCount(ctx context.Context, vc models.VoteCount) error
}

// Stats summarizes a re-index run
type Stats struct {
	Pages   int
	Posts   int64
	Missing int64
}

// Reindexer walks every post and refreshes its vote indices
type Reindexer struct {
	source     PostSource
	updater    VoteUpdater
	batchSize  int
	maxWorkers int
	logger     *zap.Logger
}

// NewReindexer creates a re-indexer
func NewReindexer(source PostSource, updater VoteUpdater, cfg *config.IndexerConfig, logger *zap.Logger) *Reindexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Reindexer{
		source:     source,
		updater:    updater,
		batchSize:  batch,
		maxWorkers: workers,
		logger:     logger.With(zap.String("component", "reindexer")),
	}
}

// Run re-applies the stored vote counters of every post in the global post
// set, oldest first. It stops at the first failure or when ctx is done.
func (r *Reindexer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	started := time.Now()
	r.logger.Info("Starting re-index",
		zap.Int("batch_size", r.batchSize),
		zap.Int("max_workers", r.maxWorkers))

	for start := int64(0); ; start += int64(r.batchSize) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stop := start + int64(r.batchSize) - 1
		pids, err := r.source.GetPidsFromSet(ctx, posts.KeyPostsByTime, start, stop, false)
		if err != nil {
			return stats, fmt.Errorf("failed to list posts %d-%d: %w", start, stop, err)
		}
		if len(pids) == 0 {
			break
		}

		applied, missing, err := r.reindexBatch(ctx, pids)
		stats.Pages++
		stats.Posts += applied
		stats.Missing += missing
		if err != nil {
			return stats, fmt.Errorf("failed to re-index posts %d-%d: %w", start, stop, err)
		}

		r.logger.Debug("Re-indexed batch",
			zap.Int64("from", start),
			zap.Int64("to", stop),
			zap.Int64("posts", applied))
	}

	r.logger.Info("Re-index finished",
		zap.Int("pages", stats.Pages),
		zap.Int64("posts", stats.Posts),
		zap.Int64("missing", stats.Missing),
		zap.Duration("elapsed", time.Since(started)))
	return stats, nil
}

func (r *Reindexer) reindexBatch(ctx context.Context, pids []int64) (int64, int64, error) {
	records, err := r.source.GetPostsByIDs(ctx, pids)
	if err != nil {
		return 0, 0, err
	}

	var applied, missing atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for i, post := range records {
		if post == nil {
			r.logger.Warn("Post listed but not stored", zap.Int64("pid", pids[i]))
			missing.Add(1)
			continue
		}
		vc := post.VoteCount()
		g.Go(func() error {
			if err := r.updater.UpdatePostVoteCount(gctx, vc); err != nil {
				return fmt.Errorf("post %d: %w", vc.PID, err)
			}
			applied.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return applied.Load(), missing.Load(), err
}
