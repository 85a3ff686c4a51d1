// Package privileges answers read and moderation checks from group membership sets.
package privileges

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
)

// Groups consulted by the checks
const (
	GroupAdministrators   = "administrators"
	GroupGlobalModerators = "Global Moderators"
	GroupBanned           = "banned-users"
)

// MembersKey is the ordered set of uids belonging to a group
func MembersKey(group string) string {
	return fmt.Sprintf("group:%s:members", group)
}

// Service checks privileges against group membership
type Service struct {
	sets   store.SortedSets
	logger *zap.Logger
}

// NewService creates a new privilege service
func NewService(sets store.SortedSets, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sets:   sets,
		logger: logger.With(zap.String("component", "privileges")),
	}
}

// IsMember reports whether uid belongs to group
func (s *Service) IsMember(ctx context.Context, group string, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	ok, err := s.sets.IsSortedSetMember(ctx, MembersKey(group), models.IDString(uid))
	if err != nil {
		return false, fmt.Errorf("failed to check group %s: %w", group, err)
	}
	return ok, nil
}

// AddMember puts uid into group
func (s *Service) AddMember(ctx context.Context, group string, uid int64, joined int64) error {
	return s.sets.SortedSetAdd(ctx, MembersKey(group), float64(joined), models.IDString(uid))
}

// FilterReadable returns the pids viewerID may read under privilege, in input
// order. Banned users read nothing; everyone else reads every post.
func (s *Service) FilterReadable(ctx context.Context, privilege string, pids []int64, viewerID int64) ([]int64, error) {
	if len(pids) == 0 {
		return []int64{}, nil
	}
	banned, err := s.IsMember(ctx, GroupBanned, viewerID)
	if err != nil {
		return nil, err
	}
	if banned {
		s.logger.Debug("Read denied", zap.String("privilege", privilege), zap.Int64("uid", viewerID))
		return []int64{}, nil
	}
	out := make([]int64, len(pids))
	copy(out, pids)
	return out, nil
}

// ViewDeleted reports whether viewerID may read deleted posts of other users.
// Administrators and global moderators can.
func (s *Service) ViewDeleted(ctx context.Context, viewerID int64) (bool, error) {
	if viewerID <= 0 {
		return false, nil
	}

	var admin, moderator bool
	var g errgroup.Group
	g.Go(func() error {
		var err error
		admin, err = s.IsMember(ctx, GroupAdministrators, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		moderator, err = s.IsMember(ctx, GroupGlobalModerators, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return admin || moderator, nil
}
