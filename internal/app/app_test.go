package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/posts"
	"github.com/steemit/postrank/pkg/config"
)

func testConfig(backend, redisURL string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Backend: backend},
		Redis:    config.RedisConfig{URL: redisURL},
		Ranking: config.RankingConfig{
			DefaultTopicPostSort: config.SortOldestToNewest,
			SettingsCacheSize:    8,
		},
	}
}

func TestNew_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name       string
		cfg        *config.Config
		wantChecks int
	}{
		{"memory", testConfig(config.BackendMemory, ""), 0},
		{"redis", testConfig(config.BackendRedis, "redis://"+mr.Addr()+"/0"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, err := New(ctx, tt.cfg, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer a.Close()

			if len(a.Checks) != tt.wantChecks {
				t.Errorf("len(Checks) = %d, want %d", len(a.Checks), tt.wantChecks)
			}

			if err := a.Votes.UpdatePostVoteCount(ctx, models.VoteCount{PID: 5, TID: 2, UID: 3, Upvotes: 2, Votes: 2}); err != nil {
				t.Fatalf("UpdatePostVoteCount() error = %v", err)
			}
			got, err := a.Resolver.GetPidIndex(ctx, 5, 2, posts.SortMostVotes)
			if err != nil {
				t.Fatalf("GetPidIndex() error = %v", err)
			}
			if got != 1 {
				t.Errorf("GetPidIndex() = %d, want 1", got)
			}
		})
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/0"
	mr.Close()

	if _, err := New(context.Background(), testConfig(config.BackendRedis, url), nil); err == nil {
		t.Error("New() should fail when Redis is unreachable")
	}
}
