package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/anonto42/nano-blog/backend/pkg/paginator"
	"github.com/anonto42/nano-blog/backend/pkg/readingtime"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	// DefaultPostsPerPage is the index page size
	DefaultPostsPerPage = 4
	// FeaturedWindow is how far back the featured post is looked for
	FeaturedWindow    = 7 * 24 * time.Hour
	relatedPostsLimit = 4
	liveSearchLimit   = 5
	liveSearchMinLen  = 3
	maxSlugLength     = 250
)

// Upload is a file received with a form
type Upload struct {
	Filename string
	Content  io.Reader
}

// IndexPage is the home page listing
type IndexPage struct {
	Featured *models.PostCard  `json:"featured_post"`
	Posts    []models.PostCard `json:"posts"`
	Page     paginator.Page    `json:"page"`
}

// PostDetail is everything the post page shows
type PostDetail struct {
	Post                models.PostCard   `json:"post"`
	Content             string            `json:"content"`
	Related             []models.PostCard `json:"related_posts"`
	Thread              *ThreadPage       `json:"comments"`
	UserHasLiked        bool              `json:"user_has_liked"`
	UserLikedCommentIDs []uint            `json:"user_liked_comment_ids"`
}

// LiveResult is one live search suggestion
type LiveResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AdminPostRow is one line of the admin post list
type AdminPostRow struct {
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Slug    string    `json:"slug"`
}

// PostService manages posts and the listings built from them
type PostService struct {
	posts     repositories.PostRepository
	comments  *CommentService
	likes     *LikeService
	files     filestore.Store
	reading   readingtime.Estimator
	publisher events.Publisher
	logger    *zap.Logger
	perPage   int
	now       func() time.Time
}

func NewPostService(
	posts repositories.PostRepository,
	comments *CommentService,
	likes *LikeService,
	files filestore.Store,
	reading readingtime.Estimator,
	publisher events.Publisher,
	logger *zap.Logger,
	perPage int,
) *PostService {
	if perPage < 1 {
		perPage = DefaultPostsPerPage
	}
	return &PostService{
		posts:     posts,
		comments:  comments,
		likes:     likes,
		files:     files,
		reading:   reading,
		publisher: publisher,
		logger:    logger,
		perPage:   perPage,
		now:       time.Now,
	}
}

// Card converts a post into its list representation
func (s *PostService) Card(p *models.Post) models.PostCard {
	card := models.PostCard{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		URL:         p.URL(),
		IsImage:     p.IsImage(),
		Viewer:      p.Viewer,
		Likes:       p.Likes,
		Tags:        p.Tags,
		ReadingTime: s.reading.MinutesHTML(p.Content),
		Created:     p.CreatedAt,
	}
	if card.Tags == nil {
		card.Tags = []models.Tag{}
	}
	if p.Author != nil {
		card.Author = p.Author.ToCompact()
	}
	if p.Attachment != "" {
		card.Attachment = MediaURL(p.Attachment)
	}
	return card
}

func (s *PostService) cards(posts []models.Post) []models.PostCard {
	out := make([]models.PostCard, 0, len(posts))
	for i := range posts {
		out = append(out, s.Card(&posts[i]))
	}
	return out
}

// MediaURL is where a stored file is served from
func MediaURL(name string) string {
	return "/media/" + strings.TrimPrefix(name, "/")
}

// Index returns the featured post and one page of the remaining posts
func (s *PostService) Index(ctx context.Context, rawPage string) (*IndexPage, error) {
	featured, err := s.featured(ctx)
	if err != nil {
		return nil, err
	}

	filter := repositories.PostFilter{}
	result := &IndexPage{}
	if featured != nil {
		card := s.Card(featured)
		result.Featured = &card
		filter.ExcludeID = featured.ID
	}

	posts, page, err := s.page(ctx, filter, rawPage, s.perPage)
	if err != nil {
		return nil, err
	}
	result.Posts = s.cards(posts)
	result.Page = page
	return result, nil
}

// featured picks the most liked post of the trailing week, falling back to
// the newest post
func (s *PostService) featured(ctx context.Context) (*models.Post, error) {
	post, err := s.posts.GetFeaturedPost(ctx, s.now().Add(-FeaturedWindow))
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	newest, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(newest) == 0 {
		return nil, nil
	}
	return &newest[0], nil
}

// page fetches one clamped page of a filtered listing
func (s *PostService) page(ctx context.Context, filter repositories.PostFilter, rawPage string, size int) ([]models.Post, paginator.Page, error) {
	requested := paginator.Get(rawPage, math.MaxInt32, size).Number
	posts, total, err := s.posts.ListPosts(ctx, filter, (requested-1)*size, size)
	if err != nil {
		return nil, paginator.Page{}, err
	}
	page := paginator.At(requested, total, size)
	if page.Number != requested {
		posts, total, err = s.posts.ListPosts(ctx, filter, page.Offset(), size)
		if err != nil {
			return nil, paginator.Page{}, err
		}
		page = paginator.At(page.Number, total, size)
	}
	return posts, page, nil
}

// Detail loads a post for display and counts the view
func (s *PostService) Detail(ctx context.Context, actor *Actor, postSlug, rawPage, rawCommentID string) (*PostDetail, error) {
	post, err := s.posts.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, notFound(err)
	}

	if err := s.posts.IncrementViews(ctx, post.ID); err != nil {
		s.logger.Warn("Failed to count post view", zap.Uint("post_id", post.ID), zap.Error(err))
	} else {
		post.Viewer++
	}

	related, err := s.posts.GetRelatedPosts(ctx, post, relatedPostsLimit)
	if err != nil {
		return nil, err
	}
	thread, err := s.comments.Thread(ctx, post, rawPage, rawCommentID)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.HasLikedPost(ctx, actor, post.ID)
	if err != nil {
		return nil, err
	}
	likedComments, err := s.likes.LikedComments(ctx, actor, thread)
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:                s.Card(post),
		Content:             post.Content,
		Related:             s.cards(related),
		Thread:              thread,
		UserHasLiked:        liked,
		UserLikedCommentIDs: likedComments,
	}, nil
}

// Get returns a post by slug
func (s *PostService) Get(ctx context.Context, postSlug string) (*models.Post, error) {
	post, err := s.posts.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func validatePostForm(form models.PostForm) error {
	v := &ValidationError{}
	if strings.TrimSpace(form.Title) == "" {
		v.Add("title", "This field is required.")
	} else if len([]rune(form.Title)) > 255 {
		v.Add("title", "Ensure this value has at most 255 characters.")
	}
	if strings.TrimSpace(form.Content) == "" {
		v.Add("content", "This field is required.")
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func tagsFor(form models.PostForm) []models.Tag {
	names := form.TagNames()
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		s := slug.Make(name)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, models.Tag{Name: name, Slug: s})
	}
	return tags
}

// uniqueSlug slugifies the title and appends -2, -3... until it is free
func (s *PostService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	if len(base) > maxSlugLength-8 {
		base = strings.Trim(base[:maxSlugLength-8], "-")
	}

	candidate := base
	for n := 2; ; n++ {
		taken, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *PostService) saveAttachment(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", nil
	}
	return s.files.Save(ctx, filestore.AttachmentPath(s.now(), upload.Filename), upload.Content)
}

// Create publishes a new post authored by the actor
func (s *PostService) Create(ctx context.Context, actor *Actor, form models.PostForm, upload *Upload) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := validatePostForm(form); err != nil {
		return nil, err
	}

	postSlug, err := s.uniqueSlug(ctx, form.Title)
	if err != nil {
		return nil, err
	}
	attachment, err := s.saveAttachment(ctx, upload)
	if err != nil {
		s.logger.Error("Failed to store attachment", zap.Uint("user_id", actor.ID), zap.Error(err))
		return nil, err
	}

	post := &models.Post{
		AuthorID:   actor.ID,
		Title:      strings.TrimSpace(form.Title),
		Slug:       postSlug,
		Content:    form.Content,
		Attachment: attachment,
		Tags:       tagsFor(form),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("Failed to create post", zap.Uint("user_id", actor.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Post created", zap.Uint("post_id", post.ID), zap.String("slug", post.Slug))
	return s.Get(ctx, post.Slug)
}

// owned loads a post the actor is allowed to change
func (s *PostService) owned(ctx context.Context, actor *Actor, postSlug string) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	post, err := s.Get(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

// Update edits the actor's own post. The slug stays the same.
func (s *PostService) Update(ctx context.Context, actor *Actor, postSlug string, form models.PostForm, upload *Upload) (*models.Post, error) {
	post, err := s.owned(ctx, actor, postSlug)
	if err != nil {
		return nil, err
	}
	if err := validatePostForm(form); err != nil {
		return nil, err
	}

	previous := post.Attachment
	attachment, err := s.saveAttachment(ctx, upload)
	if err != nil {
		return nil, err
	}
	if attachment != "" {
		post.Attachment = attachment
	}

	post.Title = strings.TrimSpace(form.Title)
	post.Content = form.Content
	post.Tags = tagsFor(form)
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, notFound(err)
	}

	if attachment != "" && previous != "" {
		s.removeFile(ctx, previous)
	}
	return s.Get(ctx, post.Slug)
}

// Delete removes the actor's own post with everything hanging off it
func (s *PostService) Delete(ctx context.Context, actor *Actor, postSlug string) error {
	post, err := s.owned(ctx, actor, postSlug)
	if err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		return notFound(err)
	}
	if post.Attachment != "" {
		s.removeFile(ctx, post.Attachment)
	}
	s.logger.Info("Post deleted", zap.Uint("post_id", post.ID), zap.Uint("user_id", actor.ID))
	publish(ctx, s.publisher, s.logger, events.PostDeleted, map[string]interface{}{
		"post_id":   post.ID,
		"slug":      post.Slug,
		"author_id": post.AuthorID,
	})
	return nil
}

func (s *PostService) removeFile(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil && !errors.Is(err, filestore.ErrNotFound) {
		s.logger.Warn("Failed to delete stored file", zap.String("name", name), zap.Error(err))
	}
}

// Search matches title or content case-insensitively, newest first
func (s *PostService) Search(ctx context.Context, query string) ([]models.PostCard, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PostCard{}, nil
	}
	posts, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{Query: query}, 0, 0)
	if err != nil {
		return nil, err
	}
	return s.cards(posts), nil
}

// LiveSearch suggests at most five posts once the query is longer than two
// characters
func (s *PostService) LiveSearch(ctx context.Context, query string) ([]LiveResult, error) {
	query = strings.TrimSpace(query)
	results := []LiveResult{}
	if len([]rune(query)) < liveSearchMinLen {
		return results, nil
	}
	posts, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{Query: query}, 0, liveSearchLimit)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		results = append(results, LiveResult{Title: posts[i].Title, URL: posts[i].URL()})
	}
	return results, nil
}

// ByTag lists the posts carrying a tag
func (s *PostService) ByTag(ctx context.Context, tagSlug string) (*models.Tag, []models.PostCard, error) {
	tag, err := s.posts.GetTagBySlug(ctx, tagSlug)
	if err != nil {
		return nil, nil, notFound(err)
	}
	posts, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{TagSlug: tag.Slug}, 0, 0)
	if err != nil {
		return nil, nil, err
	}
	return tag, s.cards(posts), nil
}

// ByAuthor lists a user's posts, newest first
func (s *PostService) ByAuthor(ctx context.Context, authorID uint) ([]models.PostCard, error) {
	posts, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{AuthorID: authorID}, 0, 0)
	if err != nil {
		return nil, err
	}
	return s.cards(posts), nil
}

// AdminList is the staff overview of every post
func (s *PostService) AdminList(ctx context.Context) ([]AdminPostRow, error) {
	posts, _, err := s.posts.ListPosts(ctx, repositories.PostFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]AdminPostRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, AdminPostRow{Title: p.Title, Created: p.CreatedAt, Slug: p.Slug})
	}
	return rows, nil
}
