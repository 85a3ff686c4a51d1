package posts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
)

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithPrivileges filters unreadable posts and decides who sees deleted content
func WithPrivileges(p Privileges) PipelineOption {
	return func(pl *Pipeline) { pl.privileges = p }
}

// WithContentParser renders post content
func WithContentParser(p ContentParser) PipelineOption {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithUserDirectory attaches author summaries
func WithUserDirectory(d UserDirectory) PipelineOption {
	return func(pl *Pipeline) { pl.authors = d }
}

// WithBlockFilter drops posts by authors the viewer blocked
func WithBlockFilter(f BlockFilter) PipelineOption {
	return func(pl *Pipeline) { pl.blocks = f }
}

// WithHooks runs the post list through filter hooks
func WithHooks(h Hooks) PipelineOption {
	return func(pl *Pipeline) { pl.hooks = h }
}

// Pipeline turns stored posts into viewer-specific results
type Pipeline struct {
	accessor   *Accessor
	privileges Privileges
	parser     ContentParser
	authors    UserDirectory
	blocks     BlockFilter
	hooks      Hooks
	logger     *zap.Logger
}

// NewPipeline creates a decoration pipeline; every stage besides loading is optional
func NewPipeline(accessor *Accessor, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		accessor: accessor,
		logger:   logger.With(zap.String("component", "post-pipeline")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetPostsByPids loads and decorates posts for viewerID. Unreadable and
// missing posts are dropped; the result never contains nil entries.
func (p *Pipeline) GetPostsByPids(ctx context.Context, pids []int64, viewerID int64) ([]*models.DecoratedPost, error) {
	if len(pids) == 0 {
		return []*models.DecoratedPost{}, nil
	}

	if p.privileges != nil {
		readable, err := p.privileges.FilterReadable(ctx, PrivilegeTopicsRead, pids, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to filter posts: %w", err)
		}
		pids = readable
		if len(pids) == 0 {
			return []*models.DecoratedPost{}, nil
		}
	}

	raw, err := p.accessor.GetPostsByIDs(ctx, pids)
	if err != nil {
		return nil, err
	}

	posts := make([]*models.DecoratedPost, 0, len(raw))
	for _, post := range raw {
		if post == nil {
			continue
		}
		posts = append(posts, p.decorate(post, viewerID))
	}

	if err := p.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	if err := p.redactDeleted(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	if p.blocks != nil {
		posts, err = p.blocks.FilterBlocked(ctx, viewerID, posts)
		if err != nil {
			return nil, fmt.Errorf("failed to filter blocked posts: %w", err)
		}
	}

	if p.hooks != nil {
		payload, err := p.hooks.Fire(ctx, HookGetPosts, &models.PostsPayload{Posts: posts, UID: viewerID})
		if err != nil {
			return nil, fmt.Errorf("%s hook failed: %w", HookGetPosts, err)
		}
		if payload == nil || payload.Posts == nil {
			p.logger.Warn("Hook returned no post list", zap.String("hook", HookGetPosts))
			return []*models.DecoratedPost{}, nil
		}
		posts = payload.Posts
	}

	return compact(posts), nil
}

func (p *Pipeline) decorate(post *models.Post, viewerID int64) *models.DecoratedPost {
	post.Upvotes = models.NormalizeCounter(post.Upvotes)
	post.Downvotes = models.NormalizeCounter(post.Downvotes)

	d := &models.DecoratedPost{
		Post:         *post,
		Votes:        post.Votes(),
		TimestampISO: models.FormatTimestamp(post.Timestamp),
		SelfPost:     viewerID != 0 && viewerID == post.UID,
	}
	if post.Edited != 0 {
		d.EditedISO = models.FormatTimestamp(post.Edited)
	}
	if p.parser != nil {
		d.Content = p.parser.Parse(post.Content)
	}
	return d
}

func (p *Pipeline) attachAuthors(ctx context.Context, posts []*models.DecoratedPost) error {
	if p.authors == nil || len(posts) == 0 {
		return nil
	}

	seen := make(map[int64]struct{})
	uids := make([]int64, 0, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.UID]; ok {
			continue
		}
		seen[post.UID] = struct{}{}
		uids = append(uids, post.UID)
	}

	authors, err := p.authors.GetAuthors(ctx, uids)
	if err != nil {
		return fmt.Errorf("failed to load authors: %w", err)
	}
	for _, post := range posts {
		if author, ok := authors[post.UID]; ok && author != nil {
			copied := *author
			post.User = &copied
		}
	}
	return nil
}

// redactDeleted hides deleted content from viewers who are neither the
// author nor allowed to view deleted posts
func (p *Pipeline) redactDeleted(ctx context.Context, posts []*models.DecoratedPost, viewerID int64) error {
	var (
		checked    bool
		canViewAll bool
	)
	for _, post := range posts {
		if !post.Deleted || post.SelfPost {
			continue
		}
		if !checked {
			checked = true
			if p.privileges != nil {
				ok, err := p.privileges.ViewDeleted(ctx, viewerID)
				if err != nil {
					return fmt.Errorf("failed to check privileges of user %d: %w", viewerID, err)
				}
				canViewAll = ok
			}
		}
		if canViewAll {
			return nil
		}
		post.Content = DeletedPlaceholder
		if post.User != nil {
			post.User.Signature = ""
		}
	}
	return nil
}

func compact(posts []*models.DecoratedPost) []*models.DecoratedPost {
	out := make([]*models.DecoratedPost, 0, len(posts))
	for _, post := range posts {
		if post != nil {
			out = append(out, post)
		}
	}
	return out
}
