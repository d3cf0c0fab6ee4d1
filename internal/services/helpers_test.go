package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/metrics"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/memory"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/anonto42/nano-blog/backend/pkg/readingtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	store         *memory.Store
	events        *events.Recorder
	metrics       *metrics.Metrics
	clock         time.Time
	comments      *CommentService
	likes         *LikeService
	notifications *NotificationService
	posts         *PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   memory.New(),
		events:  &events.Recorder{},
		metrics: metrics.New(),
		clock:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	// every stored row gets a distinct, increasing timestamp
	env.store.SetClock(func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	})

	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	logger := zap.NewNop()
	env.comments = NewCommentService(env.store, env.store, env.events, env.metrics, logger, DefaultCommentsPerPage)
	env.likes = NewLikeService(env.store, env.store, env.events, env.metrics, logger)
	env.notifications = NewNotificationService(env.store, logger)
	env.posts = NewPostService(env.store, env.comments, env.likes, files, readingtime.New(200, "ceil"), env.events, logger, DefaultPostsPerPage)
	env.posts.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) user(t *testing.T, name string) *Actor {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return &Actor{ID: u.ID, Username: u.Username}
}

func (e *testEnv) post(t *testing.T, author *Actor, title, tags string) *models.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), author, models.PostForm{Title: title, Content: "some words here", Tags: tags}, nil)
	require.NoError(t, err)
	return p
}

func (e *testEnv) comment(t *testing.T, actor *Actor, post *models.Post, parent *models.Comment) *models.Comment {
	t.Helper()
	req := models.CreateCommentRequest{Body: "a comment"}
	if parent != nil {
		req.ParentID = uintString(parent.ID)
	}
	c, err := e.comments.Create(context.Background(), actor, post, req)
	require.NoError(t, err)
	return c
}

func uintString(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
