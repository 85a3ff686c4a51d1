package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Backend. Ordering matches Redis:
// score ascending, then member ascending.
type Memory struct {
	mu      sync.RWMutex
	sets    map[string]map[string]float64
	objects map[string]map[string]string
}

// NewMemory constructs an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{
		sets:    make(map[string]map[string]float64),
		objects: make(map[string]map[string]string),
	}
}

type member struct {
	id    string
	score float64
}

// less returns true if a ranks before b in ascending order
func less(a, b member) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.id < b.id
}

// sorted returns the set's members in ascending order (lock must be held)
func (m *Memory) sorted(key string) []member {
	set := m.sets[key]
	out := make([]member, 0, len(set))
	for id, score := range set {
		out = append(out, member{id: id, score: score})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// SortedSetAdd adds or updates a member's score
func (m *Memory) SortedSetAdd(ctx context.Context, key string, score float64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]float64)
		m.sets[key] = set
	}
	set[id] = score
	return nil
}

// SortedSetRemove removes a member
func (m *Memory) SortedSetRemove(ctx context.Context, key string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.sets, key)
		}
	}
	return nil
}

// SortedSetScore returns a member's score
func (m *Memory) SortedSetScore(ctx context.Context, key string, id string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	score, ok := m.sets[key][id]
	return score, ok, nil
}

// SortedSetRank returns a member's 0-based rank
func (m *Memory) SortedSetRank(ctx context.Context, key string, id string, reverse bool) (Rank, error) {
	ranks, err := m.SortedSetRanks(ctx, key, []string{id}, reverse)
	if err != nil {
		return Rank{}, err
	}
	return ranks[0], nil
}

// SortedSetRanks resolves many members against one set
func (m *Memory) SortedSetRanks(ctx context.Context, key string, ids []string, reverse bool) ([]Rank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	positions := m.positions(key, reverse)
	ranks := make([]Rank, len(ids))
	for i, id := range ids {
		if idx, ok := positions[id]; ok {
			ranks[i] = Rank{Index: idx, Found: true}
		}
	}
	return ranks, nil
}

// SortedSetsRanks resolves ids[i] against keys[i]
func (m *Memory) SortedSetsRanks(ctx context.Context, keys []string, ids []string, reverse bool) ([]Rank, error) {
	if err := checkPairs(keys, ids); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cache := make(map[string]map[string]int64)
	ranks := make([]Rank, len(keys))
	for i, key := range keys {
		positions, ok := cache[key]
		if !ok {
			positions = m.positions(key, reverse)
			cache[key] = positions
		}
		if idx, ok := positions[ids[i]]; ok {
			ranks[i] = Rank{Index: idx, Found: true}
		}
	}
	return ranks, nil
}

func (m *Memory) positions(key string, reverse bool) map[string]int64 {
	members := m.sorted(key)
	positions := make(map[string]int64, len(members))
	n := int64(len(members))
	for i, mem := range members {
		idx := int64(i)
		if reverse {
			idx = n - 1 - idx
		}
		positions[mem.id] = idx
	}
	return positions
}

// SortedSetRange returns members between start and stop with Redis index semantics
func (m *Memory) SortedSetRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	m.mu.RLock()
	members := m.sorted(key)
	m.mu.RUnlock()

	if reverse {
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}

	n := int64(len(members))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []string{}, nil
	}

	out := make([]string, 0, stop-start+1)
	for _, mem := range members[start : stop+1] {
		out = append(out, mem.id)
	}
	return out, nil
}

// IsSortedSetMember reports whether id is in the set
func (m *Memory) IsSortedSetMember(ctx context.Context, key string, id string) (bool, error) {
	_, ok, err := m.SortedSetScore(ctx, key, id)
	return ok, err
}

// IsSortedSetMembers reports membership for many ids of one set
func (m *Memory) IsSortedSetMembers(ctx context.Context, key string, ids []string) ([]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bool, len(ids))
	for i, id := range ids {
		_, out[i] = m.sets[key][id]
	}
	return out, nil
}

// GetObjects loads many hashes; missing hashes come back empty
func (m *Memory) GetObjects(ctx context.Context, keys []string) ([]map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		obj := make(map[string]string, len(m.objects[key]))
		for k, v := range m.objects[key] {
			obj[k] = v
		}
		out[i] = obj
	}
	return out, nil
}

// GetObjectFields loads selected fields of a hash
func (m *Memory) GetObjectFields(ctx context.Context, key string, fields []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := m.objects[key][f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// SetObjectFields writes fields into a hash, storing values in their string form
func (m *Memory) SetObjectFields(ctx context.Context, key string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		obj = make(map[string]string, len(fields))
		m.objects[key] = obj
	}
	for k, v := range fields {
		obj[k] = stringify(v)
	}
	return nil
}

// Health always succeeds
func (m *Memory) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(t)
	}
}
