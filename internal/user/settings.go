// Package user serves viewer settings, author summaries and block lists.
package user

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
	"github.com/steemit/postrank/pkg/config"
)

// FieldTopicPostSort is the settings hash field holding the sort preference
const FieldTopicPostSort = "topicPostSort"

// SettingsKey is the hash key of a user's settings
func SettingsKey(uid int64) string {
	return fmt.Sprintf("user:%d:settings", uid)
}

type cacheItem struct {
	settings  *models.Settings
	expiresAt time.Time
}

// SettingsService loads user settings with a short-lived LRU cache in front
type SettingsService struct {
	objects     store.Objects
	defaultSort string
	ttl         time.Duration
	cache       *lru.Cache[int64, cacheItem]
	logger      *zap.Logger
}

// NewSettingsService creates a settings service from the ranking config
func NewSettingsService(objects store.Objects, cfg *config.RankingConfig, logger *zap.Logger) (*SettingsService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.SettingsCacheSize
	if size <= 0 {
		size = 1000
	}
	cache, err := lru.New[int64, cacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings cache: %w", err)
	}
	return &SettingsService{
		objects:     objects,
		defaultSort: cfg.DefaultTopicPostSort,
		ttl:         cfg.SettingsCacheTTL,
		cache:       cache,
		logger:      logger.With(zap.String("component", "user-settings")),
	}, nil
}

// GetSettings returns the settings of uid. Guests (uid 0) and users without a
// stored preference get the configured default sort.
func (s *SettingsService) GetSettings(ctx context.Context, uid int64) (*models.Settings, error) {
	if uid <= 0 {
		return &models.Settings{TopicPostSort: s.defaultSort}, nil
	}
	if item, ok := s.cache.Get(uid); ok {
		if time.Now().Before(item.expiresAt) {
			copied := *item.settings
			return &copied, nil
		}
		s.cache.Remove(uid)
	}

	fields, err := s.objects.GetObjectFields(ctx, SettingsKey(uid), []string{FieldTopicPostSort})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings of user %d: %w", uid, err)
	}

	settings := &models.Settings{TopicPostSort: fields[FieldTopicPostSort]}
	if settings.TopicPostSort == "" {
		settings.TopicPostSort = s.defaultSort
	}

	if s.ttl > 0 {
		s.cache.Add(uid, cacheItem{settings: settings, expiresAt: time.Now().Add(s.ttl)})
	}
	copied := *settings
	return &copied, nil
}

// SetTopicPostSort stores a user's sort preference and drops the cached copy
func (s *SettingsService) SetTopicPostSort(ctx context.Context, uid int64, sort string) error {
	switch sort {
	case config.SortOldestToNewest, config.SortNewestToOldest, config.SortMostVotes:
	default:
		return fmt.Errorf("unknown sort %q", sort)
	}
	if err := s.objects.SetObjectFields(ctx, SettingsKey(uid), map[string]interface{}{
		FieldTopicPostSort: sort,
	}); err != nil {
		return fmt.Errorf("failed to store settings of user %d: %w", uid, err)
	}
	s.cache.Remove(uid)
	s.logger.Debug("Settings updated", zap.Int64("uid", uid), zap.String("sort", sort))
	return nil
}
