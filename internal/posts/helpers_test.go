package posts_test

import (
	"context"
	"errors"
	"sync"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/store"
)

var errBackend = errors.New("backend unavailable")

// recordingSets wraps a SortedSets and records every call as "method key".
// Calls against keys in failOn return errBackend.
type recordingSets struct {
	store.SortedSets

	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
}

func newRecordingSets(inner store.SortedSets) *recordingSets {
	return &recordingSets{SortedSets: inner, failOn: map[string]bool{}}
}

func (r *recordingSets) record(method, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+" "+key)
	if r.failOn[key] {
		return errBackend
	}
	return nil
}

func (r *recordingSets) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingSets) touched(key string) bool {
	for _, c := range r.Calls() {
		if len(c) > len(key) && c[len(c)-len(key)-1:] == " "+key {
			return true
		}
	}
	return false
}

func (r *recordingSets) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	if err := r.record("add", key); err != nil {
		return err
	}
	return r.SortedSets.SortedSetAdd(ctx, key, score, member)
}

func (r *recordingSets) SortedSetRemove(ctx context.Context, key string, member string) error {
	if err := r.record("remove", key); err != nil {
		return err
	}
	return r.SortedSets.SortedSetRemove(ctx, key, member)
}

func (r *recordingSets) SortedSetRank(ctx context.Context, key string, member string, reverse bool) (store.Rank, error) {
	if err := r.record("rank", key); err != nil {
		return store.Rank{}, err
	}
	return r.SortedSets.SortedSetRank(ctx, key, member, reverse)
}

func (r *recordingSets) SortedSetRanks(ctx context.Context, key string, members []string, reverse bool) ([]store.Rank, error) {
	if err := r.record("ranks", key); err != nil {
		return nil, err
	}
	return r.SortedSets.SortedSetRanks(ctx, key, members, reverse)
}

func (r *recordingSets) SortedSetsRanks(ctx context.Context, keys []string, members []string, reverse bool) ([]store.Rank, error) {
	if err := r.record("multi-ranks", "*"); err != nil {
		return nil, err
	}
	return r.SortedSets.SortedSetsRanks(ctx, keys, members, reverse)
}

func (r *recordingSets) SortedSetRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	if err := r.record("range", key); err != nil {
		return nil, err
	}
	return r.SortedSets.SortedSetRange(ctx, key, start, stop, reverse)
}

// fixture is a small forum held in the in-memory backend
type fixture struct {
	mem    *store.Memory
	sets   *recordingSets
	posts  *store.PostRepository
	topics *store.TopicRepository
}

func newFixture() *fixture {
	mem := store.NewMemory()
	return &fixture{
		mem:    mem,
		sets:   newRecordingSets(mem),
		posts:  store.NewPostRepository(mem),
		topics: store.NewTopicRepository(mem),
	}
}

func (f *fixture) addTopic(tid, cid, mainPID int64) {
	_ = f.topics.CreateTopic(context.Background(), &models.Topic{TID: tid, CID: cid, MainPID: mainPID})
}

func (f *fixture) addPost(p *models.Post) {
	ctx := context.Background()
	_ = f.posts.CreatePost(ctx, p)
	_ = f.mem.SortedSetAdd(ctx, "posts:pid", float64(p.Timestamp), models.IDString(p.PID))
}

func (f *fixture) score(key string, id int64) (float64, bool) {
	score, ok, _ := f.mem.SortedSetScore(context.Background(), key, models.IDString(id))
	return score, ok
}

type staticSettings struct {
	sort  string
	calls int
}

func (s *staticSettings) GetSettings(ctx context.Context, uid int64) (*models.Settings, error) {
	s.calls++
	return &models.Settings{TopicPostSort: s.sort}, nil
}
