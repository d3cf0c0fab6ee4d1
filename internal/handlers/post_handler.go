package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// commentTimeLayout formats comment timestamps in JSON responses
const commentTimeLayout = "Jan. 02, 2006, 03:04 PM"

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	logger   *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, comments *services.CommentService, logger *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, logger: logger}
}

// RegisterPostRoutes registers the public post routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/", h.Index)
	g.GET("/post/:slug", h.GetPost)
	g.POST("/post/:slug", h.CreateComment)
	g.GET("/search", h.Search)
	g.GET("/live-search", h.LiveSearch)
	g.GET("/tag/:slug", h.GetTag)
}

// RegisterAuthorRoutes registers routes that change posts
func (h *PostHandler) RegisterAuthorRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.PUT("/post/:slug", h.UpdatePost)
	g.DELETE("/post/:slug", h.DeletePost)
}

// Index lists posts with the featured one on top
func (h *PostHandler) Index(c echo.Context) error {
	page, err := h.posts.Index(c.Request().Context(), c.QueryParam("page"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetPost returns a post with its comment thread. ?comment_id= jumps to the
// page holding that comment.
func (h *PostHandler) GetPost(c echo.Context) error {
	detail, err := h.posts.Detail(c.Request().Context(), actorFrom(c), c.Param("slug"), c.QueryParam("page"), c.QueryParam("comment_id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// CreateComment adds a comment or reply to the post
func (h *PostHandler) CreateComment(c echo.Context) error {
	actor := actorFrom(c)
	if actor == nil {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "Authentication required."})
	}
	ctx := c.Request().Context()

	post, err := h.posts.Get(ctx, c.Param("slug"))
	if err != nil {
		return serviceError(c, err)
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Create(ctx, actor, post, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, models.CommentCreatedResponse{
		Status:    "success",
		CommentID: comment.ID,
		Author:    comment.Author.Username,
		Body:      comment.Body,
		ParentID:  comment.ParentID,
		Created:   comment.CreatedAt.Format(commentTimeLayout),
	})
}

// upload returns the attachment sent with a multipart form, if any
func upload(c echo.Context, field string) (*services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	src, err := fh.Open()
	if err != nil {
		return nil, func() {}, echo.NewHTTPError(http.StatusBadRequest, "Invalid file upload")
	}
	return &services.Upload{Filename: fh.Filename, Content: src}, func() { src.Close() }, nil
}

// CreatePost publishes a new post from a multipart or JSON form
func (h *PostHandler) CreatePost(c echo.Context) error {
	var form models.PostForm
	if err := bindAndValidate(c, &form); err != nil {
		return err
	}
	attachment, done, err := upload(c, "attachment")
	if err != nil {
		return err
	}
	defer done()

	post, err := h.posts.Create(c.Request().Context(), actorFrom(c), form, attachment)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, h.posts.Card(post))
}

// UpdatePost edits a post; only its author may do so
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var form models.PostForm
	if err := bindAndValidate(c, &form); err != nil {
		return err
	}
	attachment, done, err := upload(c, "attachment")
	if err != nil {
		return err
	}
	defer done()

	post, err := h.posts.Update(c.Request().Context(), actorFrom(c), c.Param("slug"), form, attachment)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, h.posts.Card(post))
}

// DeletePost removes a post and everything attached to it
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.Delete(c.Request().Context(), actorFrom(c), c.Param("slug")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "redirect_url": "/api/v1/"})
}

func (h *PostHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	results, err := h.posts.Search(c.Request().Context(), query)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"query": query, "results": results})
}

// LiveSearch answers the search box suggestions
func (h *PostHandler) LiveSearch(c echo.Context) error {
	results, err := h.posts.LiveSearch(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

func (h *PostHandler) GetTag(c echo.Context) error {
	tag, posts, err := h.posts.ByTag(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tag": tag, "posts": posts})
}
