// Package posts maintains the post vote indices and answers position
// queries against them.
package posts

import (
	"context"
	"fmt"

	"github.com/steemit/postrank/internal/models"
)

// Global ordered sets
const (
	KeyPostsByTime  = "posts:pid"
	KeyPostsByVotes = "posts:votes"
	KeyTopicsVotes  = "topics:votes"
)

// SortMostVotes selects the per-topic vote index for position lookups
const SortMostVotes = "most_votes"

// HookGetPosts is fired with the decorated post list before it is returned
const HookGetPosts = "filter:post.getPosts"

// PrivilegeTopicsRead is the privilege checked before posts are loaded
const PrivilegeTopicsRead = "topics:read"

// DeletedPlaceholder replaces the content of deleted posts for viewers who may not see it
const DeletedPlaceholder = "[[topic:post_is_deleted]]"

// TopicPostsKey is the chronological post set of a topic
func TopicPostsKey(tid int64) string {
	return fmt.Sprintf("tid:%d:posts", tid)
}

// TopicPostsVotesKey is the vote-ordered post set of a topic (main post excluded)
func TopicPostsVotesKey(tid int64) string {
	return fmt.Sprintf("tid:%d:posts:votes", tid)
}

// CategoryTopicsVotesKey is the vote-ordered topic set of a category
func CategoryTopicsVotesKey(cid int64) string {
	return fmt.Sprintf("cid:%d:tids:votes", cid)
}

// UserPostsVotesKey is the set of a user's posts with a positive vote total
func UserPostsVotesKey(uid int64) string {
	return fmt.Sprintf("uid:%d:posts:votes", uid)
}

// PostStore reads and writes post records
type PostStore interface {
	// GetPosts returns one entry per pid, nil for missing posts.
	GetPosts(ctx context.Context, pids []int64) ([]*models.Post, error)
	SetPostFields(ctx context.Context, pid int64, fields map[string]interface{}) error
}

// TopicStore reads and writes the topic fields the engine depends on
type TopicStore interface {
	// GetTopicFields returns nil for a missing topic.
	GetTopicFields(ctx context.Context, tid int64, fields []string) (*models.Topic, error)
	SetTopicFields(ctx context.Context, tid int64, fields map[string]interface{}) error
}

// Privileges answers read and moderation checks for a viewer
type Privileges interface {
	FilterReadable(ctx context.Context, privilege string, pids []int64, viewerID int64) ([]int64, error)
	ViewDeleted(ctx context.Context, viewerID int64) (bool, error)
}

// SettingsProvider loads a viewer's settings
type SettingsProvider interface {
	GetSettings(ctx context.Context, uid int64) (*models.Settings, error)
}

// BlockFilter removes posts by authors the viewer has blocked
type BlockFilter interface {
	FilterBlocked(ctx context.Context, viewerID int64, posts []*models.DecoratedPost) ([]*models.DecoratedPost, error)
}

// Hooks runs filter hooks over a post list
type Hooks interface {
	Fire(ctx context.Context, event string, payload *models.PostsPayload) (*models.PostsPayload, error)
}

// ContentParser renders stored post content
type ContentParser interface {
	Parse(content string) string
}

// UserDirectory loads author summaries
type UserDirectory interface {
	GetAuthors(ctx context.Context, uids []int64) (map[int64]*models.Author, error)
}
