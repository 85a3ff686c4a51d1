// Package plugins runs registered filter hooks over post lists.
package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/models"
)

// Filter transforms a post payload. Returning a nil payload or a payload with
// nil Posts empties the result.
type Filter func(ctx context.Context, payload *models.PostsPayload) (*models.PostsPayload, error)

type registration struct {
	name     string
	priority int
	seq      int
	filter   Filter
}

// Registry holds filter hooks per event, run in ascending priority order
type Registry struct {
	mu     sync.RWMutex
	hooks  map[string][]registration
	seq    int
	logger *zap.Logger
}

// NewRegistry creates an empty hook registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		hooks:  make(map[string][]registration),
		logger: logger.With(zap.String("component", "plugins")),
	}
}

// Register adds a filter for event. Filters with equal priority run in
// registration order.
func (r *Registry) Register(event, name string, priority int, filter Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	list := append(r.hooks[event], registration{name: name, priority: priority, seq: r.seq, filter: filter})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	r.hooks[event] = list
	r.logger.Info("Hook registered", zap.String("event", event), zap.String("name", name), zap.Int("priority", priority))
}

// Count returns the number of filters registered for event
func (r *Registry) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[event])
}

// Fire runs every filter of event in order, threading the payload through.
// A filter that drops the payload stops the chain.
func (r *Registry) Fire(ctx context.Context, event string, payload *models.PostsPayload) (*models.PostsPayload, error) {
	r.mu.RLock()
	list := append([]registration(nil), r.hooks[event]...)
	r.mu.RUnlock()

	for _, h := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := h.filter(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", h.name, err)
		}
		if next == nil || next.Posts == nil {
			r.logger.Warn("Hook dropped the payload", zap.String("event", event), zap.String("name", h.name))
			return next, nil
		}
		payload = next
	}
	return payload, nil
}
