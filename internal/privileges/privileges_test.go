package privileges

import (
	"context"
	"testing"

	"github.com/steemit/postrank/internal/store"
)

func TestService_ViewDeleted(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), nil)
	_ = svc.AddMember(ctx, GroupAdministrators, 1, 0)
	_ = svc.AddMember(ctx, GroupGlobalModerators, 2, 0)

	tests := []struct {
		name string
		uid  int64
		want bool
	}{
		{"administrator", 1, true},
		{"global moderator", 2, true},
		{"regular user", 3, false},
		{"guest", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ViewDeleted(ctx, tt.uid)
			if err != nil {
				t.Fatalf("ViewDeleted() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ViewDeleted(%d) = %v, want %v", tt.uid, got, tt.want)
			}
		})
	}
}

func TestService_FilterReadable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), nil)
	_ = svc.AddMember(ctx, GroupBanned, 9, 0)

	pids := []int64{3, 1, 2}

	got, err := svc.FilterReadable(ctx, "topics:read", pids, 4)
	if err != nil {
		t.Fatalf("FilterReadable() error = %v", err)
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Errorf("FilterReadable() = %v, want %v", got, pids)
	}

	got, err = svc.FilterReadable(ctx, "topics:read", pids, 9)
	if err != nil {
		t.Fatalf("FilterReadable() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("banned user FilterReadable() = %v, want empty", got)
	}

	got, _ = svc.FilterReadable(ctx, "topics:read", nil, 4)
	if got == nil || len(got) != 0 {
		t.Errorf("FilterReadable(nil) = %#v, want empty slice", got)
	}
}

func TestService_NilBackend(t *testing.T) {
	var backend *store.Redis
	svc := NewService(backend, nil)
	if _, err := svc.ViewDeleted(context.Background(), 1); err == nil {
		t.Error("ViewDeleted() on a disabled store should fail")
	}
}
