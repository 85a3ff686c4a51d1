package store

import (
	"context"
	"fmt"

	"github.com/steemit/postrank/internal/models"
)

// PostKey is the hash key of a post
func PostKey(pid int64) string {
	return fmt.Sprintf("post:%d", pid)
}

// TopicKey is the hash key of a topic
func TopicKey(tid int64) string {
	return fmt.Sprintf("topic:%d", tid)
}

// PostRepository reads and writes post hashes
type PostRepository struct {
	objects Objects
}

// NewPostRepository creates a new post repository
func NewPostRepository(objects Objects) *PostRepository {
	return &PostRepository{objects: objects}
}

// GetPosts loads posts in input order; missing posts are nil
func (r *PostRepository) GetPosts(ctx context.Context, pids []int64) ([]*models.Post, error) {
	if len(pids) == 0 {
		return []*models.Post{}, nil
	}
	keys := make([]string, len(pids))
	for i, pid := range pids {
		keys[i] = PostKey(pid)
	}

	objects, err := r.objects.GetObjects(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	posts := make([]*models.Post, len(pids))
	for i, obj := range objects {
		post := models.PostFromFields(obj)
		if post != nil && post.PID == 0 {
			post.PID = pids[i]
		}
		posts[i] = post
	}
	return posts, nil
}

// SetPostFields updates fields of a post hash
func (r *PostRepository) SetPostFields(ctx context.Context, pid int64, fields map[string]interface{}) error {
	return r.objects.SetObjectFields(ctx, PostKey(pid), fields)
}

// CreatePost writes a complete post hash
func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.objects.SetObjectFields(ctx, PostKey(post.PID), map[string]interface{}{
		"pid":       post.PID,
		"tid":       post.TID,
		"uid":       post.UID,
		"upvotes":   post.Upvotes,
		"downvotes": post.Downvotes,
		"timestamp": post.Timestamp,
		"edited":    post.Edited,
		"deleted":   post.Deleted,
		"content":   post.Content,
	})
}

// TopicRepository reads and writes topic hashes
type TopicRepository struct {
	objects Objects
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(objects Objects) *TopicRepository {
	return &TopicRepository{objects: objects}
}

// GetTopicFields loads the named topic fields; a missing topic is nil
func (r *TopicRepository) GetTopicFields(ctx context.Context, tid int64, fields []string) (*models.Topic, error) {
	values, err := r.objects.GetObjectFields(ctx, TopicKey(tid), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic %d: %w", tid, err)
	}
	return models.TopicFromFields(tid, values), nil
}

// SetTopicFields updates fields of a topic hash
func (r *TopicRepository) SetTopicFields(ctx context.Context, tid int64, fields map[string]interface{}) error {
	return r.objects.SetObjectFields(ctx, TopicKey(tid), fields)
}

// CreateTopic writes a complete topic hash
func (r *TopicRepository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return r.objects.SetObjectFields(ctx, TopicKey(topic.TID), map[string]interface{}{
		"tid":                    topic.TID,
		models.TopicFieldCID:     topic.CID,
		models.TopicFieldMainPID: topic.MainPID,
		"upvotes":                topic.Upvotes,
		"downvotes":              topic.Downvotes,
	})
}
