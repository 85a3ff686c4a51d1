package api

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/posts"
)

// PostsAPI exposes the vote index engine over JSON-RPC
type PostsAPI struct {
	accessor *posts.Accessor
	pipeline *posts.Pipeline
	votes    *posts.VoteAggregator
	resolver *posts.Resolver
}

// NewPostsAPI creates a new posts API
func NewPostsAPI(accessor *posts.Accessor, pipeline *posts.Pipeline, votes *posts.VoteAggregator, resolver *posts.Resolver) *PostsAPI {
	return &PostsAPI{
		accessor: accessor,
		pipeline: pipeline,
		votes:    votes,
		resolver: resolver,
	}
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if trimmed := bytes.TrimSpace(params); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return invalidParams("missing parameters")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams("invalid parameters format")
	}
	return nil
}

func toIDs(raw []interface{}) []int64 {
	ids := make([]int64, len(raw))
	for i, v := range raw {
		ids[i] = models.NormalizeID(v)
	}
	return ids
}

// Exists handles posts.exists. It accepts a single pid or a pids list.
func (a *PostsAPI) Exists(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PID  interface{}   `json:"pid"`
		PIDs []interface{} `json:"pids"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.PIDs != nil {
		return a.accessor.ExistsMany(ctx.Request.Context(), toIDs(p.PIDs))
	}
	pid := models.NormalizeID(p.PID)
	if pid == 0 {
		return false, nil
	}
	return a.accessor.Exists(ctx.Request.Context(), pid)
}

// GetPidsFromSet handles posts.get_pids_from_set
func (a *PostsAPI) GetPidsFromSet(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Set     string      `json:"set"`
		Start   interface{} `json:"start"`
		Stop    interface{} `json:"stop"`
		Reverse bool        `json:"reverse"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Set == "" {
		return nil, missingParam("set")
	}
	return a.accessor.GetPidsFromSet(ctx.Request.Context(), p.Set, p.Start, p.Stop, p.Reverse)
}

// GetPostsByPids handles posts.get_posts_by_pids
func (a *PostsAPI) GetPostsByPids(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PIDs []interface{} `json:"pids"`
		UID  interface{}   `json:"uid"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return a.pipeline.GetPostsByPids(ctx.Request.Context(), toIDs(p.PIDs), models.NormalizeID(p.UID))
}

// UpdateVoteCount handles posts.update_vote_count. When votes is omitted it
// is derived from the counters.
func (a *PostsAPI) UpdateVoteCount(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PID       interface{} `json:"pid"`
		TID       interface{} `json:"tid"`
		UID       interface{} `json:"uid"`
		Upvotes   interface{} `json:"upvotes"`
		Downvotes interface{} `json:"downvotes"`
		Votes     interface{} `json:"votes"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	vc := models.VoteCount{
		PID:       models.NormalizeID(p.PID),
		TID:       models.NormalizeID(p.TID),
		UID:       models.NormalizeID(p.UID),
		Upvotes:   models.NormalizeCounter(p.Upvotes),
		Downvotes: models.NormalizeCounter(p.Downvotes),
	}
	if votes, ok := models.ToInt64(p.Votes); ok {
		vc.Votes = votes
	} else {
		vc.Votes = vc.Upvotes - vc.Downvotes
	}

	if err := a.votes.UpdatePostVoteCount(ctx.Request.Context(), vc); err != nil {
		return nil, err
	}
	return vc, nil
}

// recordVoteResult reports the stored counters, or found=false when the
// post does not exist
type recordVoteResult struct {
	Found bool `json:"found"`
	*models.VoteCount
}

// RecordVote handles posts.record_vote
func (a *PostsAPI) RecordVote(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PID  interface{} `json:"pid"`
		Up   interface{} `json:"up"`
		Down interface{} `json:"down"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	pid := models.NormalizeID(p.PID)
	if pid == 0 {
		return nil, missingParam("pid")
	}
	up, _ := models.ToInt64(p.Up)
	down, _ := models.ToInt64(p.Down)

	post, err := a.votes.RecordVote(ctx.Request.Context(), pid, up, down)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return recordVoteResult{}, nil
	}
	vc := post.VoteCount()
	return recordVoteResult{Found: true, VoteCount: &vc}, nil
}

// GetPidIndex handles posts.get_pid_index
func (a *PostsAPI) GetPidIndex(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		PID  interface{} `json:"pid"`
		TID  interface{} `json:"tid"`
		Sort string      `json:"sort"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return a.resolver.GetPidIndex(ctx.Request.Context(), models.NormalizeID(p.PID), models.NormalizeID(p.TID), p.Sort)
}

// GetPostIndices handles posts.get_post_indices
func (a *PostsAPI) GetPostIndices(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Posts []struct {
			PID interface{} `json:"pid"`
			TID interface{} `json:"tid"`
		} `json:"posts"`
		UID interface{} `json:"uid"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	refs := make([]models.PostRef, len(p.Posts))
	for i, ref := range p.Posts {
		refs[i] = models.PostRef{PID: models.NormalizeID(ref.PID), TID: models.NormalizeID(ref.TID)}
	}
	return a.resolver.GetPostIndices(ctx.Request.Context(), refs, models.NormalizeID(p.UID))
}
