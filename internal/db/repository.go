package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/steemit/postrank/internal/models"
)

// columns maps stored hash field names onto table columns
var columns = map[string]string{
	"pid":                    "pid",
	"tid":                    "tid",
	"uid":                    "uid",
	"upvotes":                "upvotes",
	"downvotes":              "downvotes",
	"timestamp":              "timestamp",
	"edited":                 "edited",
	"deleted":                "deleted",
	"content":                "content",
	models.TopicFieldCID:     "cid",
	models.TopicFieldMainPID: "main_pid",
}

func toColumns(fields map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		column, ok := columns[field]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		out[column] = value
	}
	return out, nil
}

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetPosts loads posts in input order; missing posts are nil
func (r *PostRepository) GetPosts(ctx context.Context, pids []int64) ([]*models.Post, error) {
	if len(pids) == 0 {
		return []*models.Post{}, nil
	}

	var rows []*models.Post
	if err := r.db.WithContext(ctx).Where("pid IN ?", pids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	byID := make(map[int64]*models.Post, len(rows))
	for _, row := range rows {
		byID[row.PID] = row
	}
	posts := make([]*models.Post, len(pids))
	for i, pid := range pids {
		if post, ok := byID[pid]; ok {
			copied := *post
			posts[i] = &copied
		}
	}
	return posts, nil
}

// SetPostFields updates columns of one post
func (r *PostRepository) SetPostFields(ctx context.Context, pid int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	updates, err := toColumns(fields)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("pid = ?", pid).Updates(updates).Error
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// TopicRepository provides topic-related database operations
type TopicRepository struct {
	*Repository
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(repo *Repository) *TopicRepository {
	return &TopicRepository{Repository: repo}
}

// GetTopicFields loads a topic; a missing topic is nil. The whole row is read
// regardless of fields.
func (r *TopicRepository) GetTopicFields(ctx context.Context, tid int64, fields []string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Where("tid = ?", tid).First(&topic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load topic %d: %w", tid, err)
	}
	return &topic, nil
}

// SetTopicFields updates columns of one topic
func (r *TopicRepository) SetTopicFields(ctx context.Context, tid int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	updates, err := toColumns(fields)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Topic{}).Where("tid = ?", tid).Updates(updates).Error
}

// Create creates a new topic
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}
