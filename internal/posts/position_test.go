package posts_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/steemit/postrank/internal/models"
	"github.com/steemit/postrank/internal/posts"
)

func TestResolver_GetPostIndices(t *testing.T) {
	Convey("Given topic 1 with posts voted 10, 4 and 7", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.addTopic(1, 7, 100)
		f.addTopic(2, 7, 200)

		agg := posts.NewVoteAggregator(f.mem, f.posts, f.topics, nil)
		for _, vc := range []models.VoteCount{
			{PID: 101, TID: 1, Votes: 10},
			{PID: 102, TID: 1, Votes: 4},
			{PID: 103, TID: 1, Votes: 7},
			{PID: 201, TID: 2, Votes: 1},
		} {
			So(agg.UpdatePostVoteCount(ctx, vc), ShouldBeNil)
		}
		for i, pid := range []int64{100, 101, 102, 103} {
			_ = f.mem.SortedSetAdd(ctx, posts.TopicPostsKey(1), float64(1000+i), models.IDString(pid))
		}

		settings := &staticSettings{sort: posts.SortMostVotes}
		resolver := posts.NewResolver(f.sets, settings, nil)

		Convey("When the viewer sorts by votes", func() {
			indices, err := resolver.GetPostIndices(ctx, []models.PostRef{
				{PID: 101, TID: 1},
				{PID: 102, TID: 1},
				{PID: 103, TID: 1},
			}, 5)
			So(err, ShouldBeNil)

			Convey("Then positions follow ascending score order", func() {
				So(indices, ShouldResemble, []int64{3, 1, 2})
			})

			Convey("And one batched lookup against the topic's vote set was made", func() {
				So(f.sets.Calls(), ShouldResemble, []string{"ranks " + posts.TopicPostsVotesKey(1)})
				So(settings.calls, ShouldEqual, 1)
			})
		})

		Convey("When refs span several topics", func() {
			indices, err := resolver.GetPostIndices(ctx, []models.PostRef{
				{PID: 201, TID: 2},
				{PID: 102, TID: 1},
				{PID: 999, TID: 1},
			}, 5)
			So(err, ShouldBeNil)

			Convey("Then each ref is resolved against its own topic", func() {
				So(indices, ShouldResemble, []int64{1, 1, 0})
				So(f.sets.Calls(), ShouldResemble, []string{"multi-ranks *"})
			})
		})

		Convey("When the viewer uses chronological order", func() {
			settings.sort = "oldest_to_newest"
			indices, err := resolver.GetPostIndices(ctx, []models.PostRef{
				{PID: 100, TID: 1},
				{PID: 103, TID: 1},
			}, 5)
			So(err, ShouldBeNil)

			Convey("Then the chronological set is used and the main post counts", func() {
				So(indices, ShouldResemble, []int64{1, 4})
				So(f.sets.Calls(), ShouldResemble, []string{"ranks " + posts.TopicPostsKey(1)})
			})
		})

		Convey("When the main post is looked up in the vote order", func() {
			indices, err := resolver.GetPostIndices(ctx, []models.PostRef{{PID: 100, TID: 1}}, 5)
			So(err, ShouldBeNil)
			So(indices, ShouldResemble, []int64{0})
		})

		Convey("When no refs are given", func() {
			indices, err := resolver.GetPostIndices(ctx, nil, 5)
			So(err, ShouldBeNil)
			So(indices, ShouldBeEmpty)
			So(f.sets.Calls(), ShouldBeEmpty)
			So(settings.calls, ShouldEqual, 0)
		})

		Convey("When the same query is repeated", func() {
			refs := []models.PostRef{{PID: 103, TID: 1}, {PID: 101, TID: 1}}
			first, err := resolver.GetPostIndices(ctx, refs, 5)
			So(err, ShouldBeNil)
			second, err := resolver.GetPostIndices(ctx, refs, 5)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})

		Convey("When the rank lookup fails", func() {
			f.sets.failOn[posts.TopicPostsVotesKey(1)] = true
			_, err := resolver.GetPostIndices(ctx, []models.PostRef{{PID: 101, TID: 1}}, 5)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestResolver_GetPidIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i, pid := range []int64{10, 11, 12} {
		_ = f.mem.SortedSetAdd(ctx, posts.TopicPostsKey(3), float64(i), models.IDString(pid))
		_ = f.mem.SortedSetAdd(ctx, posts.TopicPostsVotesKey(3), float64(10-i), models.IDString(pid))
	}
	resolver := posts.NewResolver(f.mem, nil, nil)

	tests := []struct {
		name string
		pid  int64
		sort string
		want int64
	}{
		{"chronological first", 10, "oldest_to_newest", 1},
		{"chronological last", 12, "", 3},
		{"newest first uses chronological set", 11, "newest_to_oldest", 2},
		{"by votes", 12, posts.SortMostVotes, 1},
		{"by votes last", 10, posts.SortMostVotes, 3},
		{"unknown post", 99, posts.SortMostVotes, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.GetPidIndex(ctx, tt.pid, 3, tt.sort)
			if err != nil {
				t.Fatalf("GetPidIndex() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetPidIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPositionRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addTopic(4, 1, 400)
	agg := posts.NewVoteAggregator(f.mem, f.posts, f.topics, nil)

	vc := models.VoteCount{PID: 401, TID: 4, UID: 2, Upvotes: 5, Downvotes: 2, Votes: 3}
	if err := agg.UpdatePostVoteCount(ctx, vc); err != nil {
		t.Fatalf("UpdatePostVoteCount() error = %v", err)
	}

	resolver := posts.NewResolver(f.mem, nil, nil)
	got, err := resolver.GetPidIndex(ctx, 401, 4, posts.SortMostVotes)
	if err != nil {
		t.Fatalf("GetPidIndex() error = %v", err)
	}
	if got < 1 {
		t.Errorf("GetPidIndex() = %d, want a position >= 1", got)
	}

	score, ok := f.score(posts.TopicPostsVotesKey(4), 401)
	if !ok || score != 3 {
		t.Errorf("score = %v (found %v), want 3", score, ok)
	}
}
