package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/metrics"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/memory"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type server struct {
	e      *echo.Echo
	store  *memory.Store
	events *events.Recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        testSecret,
		JWTTTL:           time.Hour,
		ReadingWPM:       200,
		ReadingRounding:  "ceil",
		AnnouncementMode: "latest",
		CommentsPerPage:  10,
		PostsPerPage:     4,
	}
	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	s := &server{e: echo.New(), store: memory.New(), events: &events.Recorder{}}
	SetupRoutes(s.e, &Dependencies{
		Config:    cfg,
		Logger:    zap.NewNop(),
		Metrics:   metrics.New(),
		Repos:     MemoryRepositories(s.store),
		Sessions:  session.NewMemoryStore(),
		Files:     files,
		Publisher: s.events,
	})
	return s
}

type request struct {
	method string
	path   string
	json   interface{}
	form   url.Values
	token  string
	cookie *http.Cookie
}

func (s *server) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	switch {
	case r.json != nil:
		body, err := json.Marshal(r.json)
		require.NoError(t, err)
		req = httptest.NewRequest(r.method, r.path, strings.NewReader(string(body)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	case r.form != nil:
		req = httptest.NewRequest(r.method, r.path, strings.NewReader(r.form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	default:
		req = httptest.NewRequest(r.method, r.path, nil)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register signs a user up through the API and returns a token
func (s *server) register(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", json: echo.Map{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password123",
		"password_confirm": "password123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", json: echo.Map{
		"login":    username,
		"password": "password123",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func (s *server) staffToken(t *testing.T) string {
	t.Helper()
	u := &models.User{Username: "staff", Email: "staff@example.com", IsStaff: true}
	require.NoError(t, s.store.CreateUser(context.Background(), u))
	tok, err := middleware.SignToken(u, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestSignup_Duplicate(t *testing.T) {
	s := newServer(t)
	s.register(t, "alice")

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", json: echo.Map{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "password123",
		"password_confirm": "password123",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "username")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", json: echo.Map{
		"login":    "alice@example.com",
		"password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostCommentNotificationFlow(t *testing.T) {
	s := newServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/posts", token: alice, json: echo.Map{
		"title":   "Hello World",
		"content": "<p>one two three</p>",
		"tags":    "go, web",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "hello-world", decode(t, rec)["slug"])

	// anonymous visitors cannot comment or like
	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/hello-world", json: echo.Map{"body": "hi"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/like/hello-world"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "login_required", decode(t, rec)["status"])

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/hello-world", token: alice, json: echo.Map{"body": "Thanks for reading"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	parentID := decode(t, rec)["comment_id"].(float64)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/hello-world", token: bob, json: echo.Map{
		"body":      "Nice post",
		"parent_id": strconv.FormatUint(uint64(parentID), 10),
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "success", created["status"])
	assert.Equal(t, "bob", created["author"])
	assert.Equal(t, parentID, created["parent_id"])

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/like/hello-world", token: bob})
	require.Equal(t, http.StatusOK, rec.Code)
	liked := decode(t, rec)
	assert.Equal(t, true, liked["liked"])
	assert.Equal(t, float64(1), liked["likes"])

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context", token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get(middleware.UnreadHeader))
	assert.Equal(t, float64(2), decode(t, rec)["unread_notifications_count"])

	// viewing the feed marks it read, the header already reflects that
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/notifications", token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["notifications"], 2)
	assert.Equal(t, "0", rec.Header().Get(middleware.UnreadHeader))

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/post/hello-world", token: bob})
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Equal(t, true, detail["user_has_liked"])

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/live-search?q=hel"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{method: http.MethodDelete, path: "/api/v1/post/hello-world", token: bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, request{method: http.MethodDelete, path: "/api/v1/post/hello-world", token: alice})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.events.Events(events.PostDeleted), 1)
}

func TestPostDetail_HidesCommenterEmail(t *testing.T) {
	s := newServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/posts", token: alice, json: echo.Map{
		"title":   "Hello",
		"content": "<p>some words</p>",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/hello", token: alice, json: echo.Map{"body": "First"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	parentID := strconv.FormatUint(uint64(decode(t, rec)["comment_id"].(float64)), 10)
	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/hello", token: bob, json: echo.Map{
		"body":      "Second",
		"parent_id": parentID,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/post/hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "@example.com")
	assert.NotContains(t, rec.Body.String(), "is_staff")

	thread := decode(t, rec)["comments"].(map[string]interface{})
	comments := thread["comments"].([]interface{})
	require.Len(t, comments, 1)
	top := comments[0].(map[string]interface{})
	assert.Equal(t, "alice", top["author"].(map[string]interface{})["username"])
	reply := top["replies"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "bob", reply["author"].(map[string]interface{})["username"])

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/comment/" + parentID + "/replies"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "@example.com")
	replies := decode(t, rec)["replies"].([]interface{})
	require.Len(t, replies, 1)
	assert.Equal(t, "bob", replies[0].(map[string]interface{})["author"].(map[string]interface{})["username"])
}

func TestCommentDelete_PermissionBeforeMethod(t *testing.T) {
	s := newServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	carol := s.register(t, "carol")

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/posts", token: alice, json: echo.Map{
		"title":   "Moderated",
		"content": "<p>words</p>",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/post/moderated", token: bob, json: echo.Map{"body": "mine"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deletePath := "/api/v1/comment/" + strconv.FormatUint(uint64(decode(t, rec)["comment_id"].(float64)), 10) + "/delete"

	rec = s.do(t, request{method: http.MethodGet, path: deletePath, token: carol})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, request{method: http.MethodPost, path: deletePath, token: carol})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: deletePath})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: deletePath, token: bob})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request method.")

	// the post's author may remove comments on it
	rec = s.do(t, request{method: http.MethodPost, path: deletePath, token: alice})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, request{method: http.MethodPost, path: deletePath, token: bob})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications_RequireLogin(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{method: http.MethodGet, path: "/api/v1/notifications"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_StaffOnly(t *testing.T) {
	s := newServer(t)
	bob := s.register(t, "bob")
	staff := s.staffToken(t)

	rec := s.do(t, request{method: http.MethodGet, path: "/api/v1/admin/messages"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/admin/messages", token: bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/admin/messages", token: staff})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/admin/announcements", token: staff, json: echo.Map{
		"content": "Maintenance tonight",
		"level":   "warning",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(float64)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/admin/announcements/deactivate", token: staff, json: echo.Map{
		"ids": []uint{uint(id)},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["updated"])

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["active_announcement"])

	// revoking staff status locks the still valid token out
	ctx := context.Background()
	u, err := s.store.GetUserByUsername(ctx, "staff")
	require.NoError(t, err)
	u.IsStaff = false
	require.NoError(t, s.store.UpdateUser(ctx, u))
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/admin/messages", token: staff})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnnouncement_DismissIsPerSession(t *testing.T) {
	s := newServer(t)
	staff := s.staffToken(t)

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/admin/announcements", token: staff, json: echo.Map{"content": "Hello readers"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(float64)

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/announcements/" + strconv.FormatUint(uint64(id), 10) + "/dismiss"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context", cookie: cookie})
	assert.Nil(t, decode(t, rec)["active_announcement"])

	// another visitor still sees it
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context"})
	assert.NotNil(t, decode(t, rec)["active_announcement"])
}

func TestContact_FlashAfterRedirect(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/contact", form: url.Values{
		"name":    {"Carol"},
		"email":   {"carol@example.com"},
		"message": {"Hello there"},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/contact", rec.Header().Get(echo.HeaderLocation))
	cookie := sessionCookie(t, rec)

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode(t, rec)["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, services.ContactSuccessMessage, messages[0].(map[string]interface{})["message"])

	// flashes are shown once
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/context", cookie: cookie})
	assert.Empty(t, decode(t, rec)["messages"])

	assert.Len(t, s.events.Events(events.ContactReceived), 1)
}

func TestContact_InvalidForm(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{method: http.MethodPost, path: "/api/v1/contact", json: echo.Map{
		"name":    "Carol",
		"email":   "not-an-email",
		"message": "   ",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "message")
}

func TestMedia_NotFound(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{method: http.MethodGet, path: "/media/uploads/missing.png"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewDependencies_MemoryFallback(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir()}
	deps, err := NewDependencies(context.Background(), cfg, &config.DB{}, zap.NewNop())
	require.NoError(t, err)

	assert.IsType(t, &memory.Store{}, deps.Repos.Posts)
	assert.IsType(t, &session.MemoryStore{}, deps.Sessions)
	assert.IsType(t, &filestore.Local{}, deps.Files)
	assert.IsType(t, events.NoopPublisher{}, deps.Publisher)
	assert.Nil(t, deps.Mailer)
	assert.Nil(t, deps.Firebase)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func TestProfileFlow(t *testing.T) {
	s := newServer(t)
	alice := s.register(t, "alice")
	s.register(t, "bob")

	rec := s.do(t, request{method: http.MethodGet, path: "/api/v1/profile"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, request{method: http.MethodPut, path: "/api/v1/profile", token: alice, json: echo.Map{"email": "bob@example.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "email")

	rec = s.do(t, request{method: http.MethodPut, path: "/api/v1/profile", token: alice, json: echo.Map{"bio": "Writes about Go"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/profile", token: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Writes about Go", user["profile"].(map[string]interface{})["bio"])
	assert.NotNil(t, body["stats"])

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/profile/password", token: alice, json: echo.Map{
		"old_password":  "wrong-password",
		"new_password1": "newpassword1",
		"new_password2": "newpassword1",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "old_password")

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/profile/password", token: alice, json: echo.Map{
		"old_password":  "password123",
		"new_password1": "newpassword1",
		"new_password2": "newpassword1",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", json: echo.Map{"login": "alice", "password": "newpassword1"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	// public profiles hide private account fields
	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "alice", public["username"])
	assert.NotContains(t, public, "email")
	assert.NotContains(t, public, "is_staff")
	assert.NotContains(t, public, "firebase_uid")

	rec = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
