package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/steemit/postrank/internal/models"
)

func payloadOf(pids ...int64) *models.PostsPayload {
	posts := make([]*models.DecoratedPost, len(pids))
	for i, pid := range pids {
		posts[i] = &models.DecoratedPost{Post: models.Post{PID: pid}}
	}
	return &models.PostsPayload{Posts: posts, UID: 1}
}

func pidsOf(p *models.PostsPayload) []int64 {
	out := make([]int64, len(p.Posts))
	for i, post := range p.Posts {
		out[i] = post.PID
	}
	return out
}

func TestRegistry_FireOrder(t *testing.T) {
	r := NewRegistry(nil)
	var order []string
	appendPID := func(name string, pid int64) Filter {
		return func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) {
			order = append(order, name)
			p.Posts = append(p.Posts, &models.DecoratedPost{Post: models.Post{PID: pid}})
			return p, nil
		}
	}
	r.Register("filter:post.getPosts", "late", 20, appendPID("late", 30))
	r.Register("filter:post.getPosts", "early", 1, appendPID("early", 10))
	r.Register("filter:post.getPosts", "early-too", 1, appendPID("early-too", 20))

	got, err := r.Fire(context.Background(), "filter:post.getPosts", payloadOf(1))
	if err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	want := []int64{1, 10, 20, 30}
	gotPIDs := pidsOf(got)
	if len(gotPIDs) != len(want) {
		t.Fatalf("pids = %v, want %v", gotPIDs, want)
	}
	for i := range want {
		if gotPIDs[i] != want[i] {
			t.Errorf("pids = %v, want %v", gotPIDs, want)
			break
		}
	}
	if len(order) != 3 || order[0] != "early" || order[1] != "early-too" || order[2] != "late" {
		t.Errorf("order = %v", order)
	}
	if r.Count("filter:post.getPosts") != 3 {
		t.Errorf("Count() = %d, want 3", r.Count("filter:post.getPosts"))
	}
}

func TestRegistry_Fire(t *testing.T) {
	tests := []struct {
		name     string
		filters  []Filter
		wantNil  bool
		wantErr  bool
		wantPIDs []int64
	}{
		{
			name:     "no hooks passes through",
			wantPIDs: []int64{1, 2},
		},
		{
			name: "hook drops the payload",
			filters: []Filter{
				func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) { return nil, nil },
				func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) {
					t.Error("chain should stop after a dropped payload")
					return p, nil
				},
			},
			wantNil: true,
		},
		{
			name: "hook error",
			filters: []Filter{
				func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) {
					return nil, errors.New("boom")
				},
			},
			wantErr: true,
		},
		{
			name: "hook filters posts",
			filters: []Filter{
				func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) {
					return &models.PostsPayload{Posts: p.Posts[1:], UID: p.UID}, nil
				},
			},
			wantPIDs: []int64{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			for i, f := range tt.filters {
				r.Register("event", tt.name, i, f)
			}
			got, err := r.Fire(context.Background(), "event", payloadOf(1, 2))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fire() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("Fire() = %+v, want nil", got)
				}
				return
			}
			gotPIDs := pidsOf(got)
			if len(gotPIDs) != len(tt.wantPIDs) {
				t.Fatalf("pids = %v, want %v", gotPIDs, tt.wantPIDs)
			}
			for i := range gotPIDs {
				if gotPIDs[i] != tt.wantPIDs[i] {
					t.Errorf("pids = %v, want %v", gotPIDs, tt.wantPIDs)
				}
			}
		})
	}
}

func TestRegistry_FireCancelled(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("event", "noop", 0, func(ctx context.Context, p *models.PostsPayload) (*models.PostsPayload, error) {
		return p, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Fire(ctx, "event", payloadOf(1)); err == nil {
		t.Error("Fire() with a cancelled context should fail")
	}
}
