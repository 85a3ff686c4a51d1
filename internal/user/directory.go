package user

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
)

// Key is the hash key of a user
func Key(uid int64) string {
	return fmt.Sprintf("user:%d", uid)
}

// BlockedKey is the ordered set of uids blocked by uid
func BlockedKey(uid int64) string {
	return fmt.Sprintf("uid:%d:blocked_uids", uid)
}

// Directory loads author summaries and block lists
type Directory struct {
	objects store.Objects
	sets    store.SortedSets
	logger  *zap.Logger
}

// NewDirectory creates a new user directory
func NewDirectory(backend store.Backend, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		objects: backend,
		sets:    backend,
		logger:  logger.With(zap.String("component", "user-directory")),
	}
}

// GetAuthors loads author summaries; unknown users are left out of the map
func (d *Directory) GetAuthors(ctx context.Context, uids []int64) (map[int64]*models.Author, error) {
	authors := make(map[int64]*models.Author, len(uids))
	if len(uids) == 0 {
		return authors, nil
	}

	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = Key(uid)
	}
	objects, err := d.objects.GetObjects(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	for i, obj := range objects {
		if len(obj) == 0 {
			continue
		}
		authors[uids[i]] = &models.Author{
			UID:       uids[i],
			Username:  obj["username"],
			Signature: obj["signature"],
		}
	}
	return authors, nil
}

// CreateUser writes a user hash
func (d *Directory) CreateUser(ctx context.Context, author *models.Author) error {
	return d.objects.SetObjectFields(ctx, Key(author.UID), map[string]interface{}{
		"uid":       author.UID,
		"username":  author.Username,
		"signature": author.Signature,
	})
}

// Block records that uid blocked target
func (d *Directory) Block(ctx context.Context, uid, target int64, at int64) error {
	return d.sets.SortedSetAdd(ctx, BlockedKey(uid), float64(at), models.IDString(target))
}

// Unblock removes target from uid's block list
func (d *Directory) Unblock(ctx context.Context, uid, target int64) error {
	return d.sets.SortedSetRemove(ctx, BlockedKey(uid), models.IDString(target))
}

// FilterBlocked drops posts whose author the viewer has blocked. Guests block nobody.
func (d *Directory) FilterBlocked(ctx context.Context, viewerID int64, posts []*models.DecoratedPost) ([]*models.DecoratedPost, error) {
	if viewerID <= 0 || len(posts) == 0 {
		return posts, nil
	}

	members := make([]string, len(posts))
	for i, post := range posts {
		members[i] = models.IDString(post.UID)
	}
	blocked, err := d.sets.IsSortedSetMembers(ctx, BlockedKey(viewerID), members)
	if err != nil {
		return nil, fmt.Errorf("failed to load block list of user %d: %w", viewerID, err)
	}

	out := make([]*models.DecoratedPost, 0, len(posts))
	for i, post := range posts {
		if blocked[i] {
			continue
		}
		out = append(out, post)
	}
	if dropped := len(posts) - len(out); dropped > 0 {
		d.logger.Debug("Filtered blocked posts", zap.Int64("uid", viewerID), zap.Int("dropped", dropped))
	}
	return out, nil
}
