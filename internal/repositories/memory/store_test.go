package memory

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a store with one author and one post
func newTestStore(t *testing.T) (*Store, *models.User, *models.Post) {
	store := New()
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "author@example.com"}
	require.NoError(t, store.CreateUser(ctx, author))

	post := &models.Post{
		AuthorID: author.ID,
		Title:    "Test Post",
		Slug:     "test-post",
		Content:  "Content",
		Tags:     []models.Tag{{Name: "Go", Slug: "go"}},
	}
	require.NoError(t, store.CreatePost(ctx, post))
	return store, author, post
}

func addUser(t *testing.T, s *Store, name string) *models.User {
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_CreateUser_CreatesProfile(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	require.NotNil(t, author.Profile)
	assert.Equal(t, models.DefaultAvatar, author.Profile.Avatar)

	got, err := store.GetUserByEmail(ctx, "AUTHOR@example.com")
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)

	err = store.CreateUser(ctx, &models.User{Username: "author", Email: "other@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStore_GetOrCreateProfile(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	store.DropProfile(author.ID)
	p, err := store.GetOrCreateProfile(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, p.UserID)

	again, err := store.GetOrCreateProfile(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
}

func TestStore_CommentTree(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	root := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "root", Active: true}
	require.NoError(t, store.CreateComment(ctx, root, nil))
	reply := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "reply", Active: true, ParentID: &root.ID}
	require.NoError(t, store.CreateComment(ctx, reply, nil))
	nested := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "nested", Active: true, ParentID: &reply.ID}
	require.NoError(t, store.CreateComment(ctx, nested, nil))

	top, total, err := store.ListTopLevel(ctx, post.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, top, 1)
	assert.Equal(t, "root", top[0].Body)

	byParent, err := store.RepliesByParentIDs(ctx, []uint{root.ID, reply.ID})
	require.NoError(t, err)
	assert.Len(t, byParent[root.ID], 1)
	assert.Len(t, byParent[reply.ID], 1)

	bad := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "x", ParentID: ptr(uint(9999))}
	assert.ErrorIs(t, store.CreateComment(ctx, bad, nil), repositories.ErrNotFound)
}

func TestStore_InactiveCommentsHidden(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "hidden", Active: true}
	require.NoError(t, store.CreateComment(ctx, c, nil))
	store.SetCommentActive(c.ID, false)

	ids, err := store.TopLevelIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_DeleteComment_RemovesSubtree(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()
	other := addUser(t, store, "other")

	root := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "root", Active: true}
	require.NoError(t, store.CreateComment(ctx, root, nil))
	var replies []uint
	for i := 0; i < 3; i++ {
		r := &models.Comment{PostID: post.ID, AuthorID: other.ID, Body: "reply", Active: true, ParentID: &root.ID}
		n := &models.Notification{RecipientID: author.ID, SenderID: other.ID, Verb: "replied"}
		require.NoError(t, store.CreateComment(ctx, r, n))
		replies = append(replies, r.ID)
	}
	_, err := store.ToggleCommentLike(ctx, replies[1], author.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteComment(ctx, root.ID))

	for _, id := range append(replies, root.ID) {
		_, err := store.GetCommentByID(ctx, id)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	}
	unread, err := store.GetUnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.Zero(t, store.CommentLikeCount(replies[1]))
}

func TestStore_TogglePostLike(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()
	fan := addUser(t, store, "fan")

	n := &models.Notification{RecipientID: author.ID, SenderID: fan.ID, Verb: "liked"}
	res, err := store.TogglePostLike(ctx, post.ID, fan.ID, n)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Likes: 1, Liked: true}, res)
	require.NotNil(t, n.PostID)
	assert.Equal(t, post.ID, *n.PostID)

	res, err = store.TogglePostLike(ctx, post.ID, fan.ID, &models.Notification{RecipientID: author.ID, SenderID: fan.ID})
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Likes: 0, Liked: false}, res)

	count, err := store.GetUnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = store.TogglePostLike(ctx, 424242, fan.ID, nil)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStore_DeletePost_Cascades(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()
	fan := addUser(t, store, "fan")

	c := &models.Comment{PostID: post.ID, AuthorID: fan.ID, Body: "hi", Active: true}
	require.NoError(t, store.CreateComment(ctx, c, nil))
	_, err := store.TogglePostLike(ctx, post.ID, fan.ID, &models.Notification{RecipientID: author.ID, SenderID: fan.ID})
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, post.ID))

	_, err = store.GetPostBySlug(ctx, post.Slug)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = store.GetCommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	list, err := store.ListForRecipient(ctx, author.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ListPostsAndRelated(t *testing.T) {
	store, author, first := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	second := &models.Post{AuthorID: author.ID, Title: "Second", Slug: "second", Content: "golang tips",
		Tags: []models.Tag{{Name: "Go", Slug: "go"}, {Name: "Web", Slug: "web"}}, CreatedAt: base.Add(time.Hour)}
	third := &models.Post{AuthorID: author.ID, Title: "Third", Slug: "third", Content: "nothing",
		Tags: []models.Tag{{Name: "Web", Slug: "web"}}, CreatedAt: base.Add(2 * time.Hour)}
	require.NoError(t, store.CreatePost(ctx, second))
	require.NoError(t, store.CreatePost(ctx, third))

	posts, total, err := store.ListPosts(ctx, repositories.PostFilter{TagSlug: "web"}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "third", posts[0].Slug)

	posts, _, err = store.ListPosts(ctx, repositories.PostFilter{Query: "GOLANG"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "second", posts[0].Slug)

	// wildcard characters match only themselves
	for _, q := range []string{"%", "___", "%%%"} {
		posts, total, err = store.ListPosts(ctx, repositories.PostFilter{Query: q}, 0, 0)
		require.NoError(t, err)
		assert.Zero(t, total, q)
		assert.Empty(t, posts, q)
	}
	pct := &models.Post{AuthorID: author.ID, Title: "100% coverage", Slug: "coverage", Content: "tests",
		CreatedAt: base.Add(3 * time.Hour)}
	require.NoError(t, store.CreatePost(ctx, pct))
	posts, _, err = store.ListPosts(ctx, repositories.PostFilter{Query: "0%"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "coverage", posts[0].Slug)

	full, err := store.GetPostBySlug(ctx, "second")
	require.NoError(t, err)
	related, err := store.GetRelatedPosts(ctx, full, 4)
	require.NoError(t, err)
	require.Len(t, related, 2)
	// one shared tag each, so the newer post wins
	assert.Equal(t, first.Slug, related[0].Slug)
	assert.Equal(t, "third", related[1].Slug)

	third.Tags = []models.Tag{{Name: "Go", Slug: "go"}, {Name: "Web", Slug: "web"}}
	require.NoError(t, store.UpdatePost(ctx, third))
	related, err = store.GetRelatedPosts(ctx, full, 4)
	require.NoError(t, err)
	assert.Equal(t, "third", related[0].Slug)
}
