package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService_CounterMatchesMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	post := env.post(t, author, "Popular", "")
	comment := env.comment(t, author, post, nil)

	var actors []*Actor
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		actors = append(actors, env.user(t, name))
	}

	rng := rand.New(rand.NewSource(7))
	postLiked := make(map[uint]bool)
	commentLiked := make(map[uint]bool)
	for i := 0; i < 200; i++ {
		actor := actors[rng.Intn(len(actors))]
		if rng.Intn(2) == 0 {
			res, err := env.likes.TogglePost(ctx, actor, post.Slug)
			require.NoError(t, err)
			postLiked[actor.ID] = !postLiked[actor.ID]
			assert.Equal(t, postLiked[actor.ID], res.Liked)
		} else {
			res, err := env.likes.ToggleComment(ctx, actor, comment.ID)
			require.NoError(t, err)
			commentLiked[actor.ID] = !commentLiked[actor.ID]
			assert.Equal(t, commentLiked[actor.ID], res.Liked)
		}
	}

	count := func(m map[uint]bool) int {
		n := 0
		for _, v := range m {
			if v {
				n++
			}
		}
		return n
	}

	got, err := env.posts.Get(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, count(postLiked), got.Likes)
	assert.Equal(t, got.Likes, env.store.PostLikeCount(post.ID))

	c, err := env.store.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, count(commentLiked), c.Likes)
	assert.Equal(t, c.Likes, env.store.CommentLikeCount(comment.ID))
}

func TestLikeService_ConcurrentToggles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	post := env.post(t, author, "Busy", "")
	comment := env.comment(t, author, post, nil)

	// odd toggle counts end liked, even ones end unliked
	const readers = 12
	var actors []*Actor
	for i := 0; i < readers; i++ {
		actors = append(actors, env.user(t, "reader"+string(rune('a'+i))))
	}

	var wg sync.WaitGroup
	errs := make(chan error, readers*2*(readers+1))
	for i, actor := range actors {
		toggles := i + 1
		wg.Add(2)
		go func(actor *Actor, n int) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				if _, err := env.likes.TogglePost(ctx, actor, post.Slug); err != nil {
					errs <- err
				}
			}
		}(actor, toggles)
		go func(actor *Actor, n int) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				if _, err := env.likes.ToggleComment(ctx, actor, comment.ID); err != nil {
					errs <- err
				}
			}
		}(actor, toggles)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	want := readers / 2
	got, err := env.posts.Get(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, want, got.Likes)
	assert.Equal(t, got.Likes, env.store.PostLikeCount(post.ID))

	c, err := env.store.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, want, c.Likes)
	assert.Equal(t, c.Likes, env.store.CommentLikeCount(comment.ID))

	for i, actor := range actors {
		liked, err := env.likes.HasLikedPost(ctx, actor, post.ID)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 0, liked, actor.Username)
	}
}

func TestLikeService_TogglePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	fan := env.user(t, "fan")
	post := env.post(t, author, "Like me", "")

	_, err := env.likes.TogglePost(ctx, nil, post.Slug)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.likes.TogglePost(ctx, fan, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// liking your own post never notifies
	res, err := env.likes.TogglePost(ctx, author, post.Slug)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)
	unread, err := env.notifications.UnreadCount(ctx, author)
	require.NoError(t, err)
	assert.Zero(t, unread)

	res, err = env.likes.TogglePost(ctx, fan, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Likes)
	unread, err = env.notifications.UnreadCount(ctx, author)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	latest, err := env.notifications.Latest(ctx, author)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, `liked your post: "Like me"`, latest[0].Verb)
	require.NotNil(t, latest[0].PostID)
	assert.Equal(t, post.ID, *latest[0].PostID)
	assert.Len(t, env.events.Events(events.NotificationCreated), 1)

	// unliking and liking again is back where it started
	res, err = env.likes.TogglePost(ctx, fan, post.Slug)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 1, res.Likes)
	res, err = env.likes.TogglePost(ctx, fan, post.Slug)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 2, res.Likes)

	liked, err := env.likes.HasLikedPost(ctx, fan, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = env.likes.HasLikedPost(ctx, nil, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikeService_ToggleComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	fan := env.user(t, "fan")
	post := env.post(t, author, "Comments", "")
	comment := env.comment(t, author, post, nil)

	_, err := env.likes.ToggleComment(ctx, nil, comment.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.likes.ToggleComment(ctx, fan, 31337)
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := env.likes.ToggleComment(ctx, fan, comment.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	unread, err := env.notifications.UnreadCount(ctx, author)
	require.NoError(t, err)
	assert.Zero(t, unread, "comment likes do not notify")

	thread, err := env.comments.Thread(ctx, post, "", "")
	require.NoError(t, err)
	ids, err := env.likes.LikedComments(ctx, fan, thread)
	require.NoError(t, err)
	assert.Equal(t, []uint{comment.ID}, ids)
}
