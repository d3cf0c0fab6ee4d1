package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// PostFilter narrows post listings. Zero fields are ignored.
type PostFilter struct {
	AuthorID  uint
	TagSlug   string
	Query     string
	ExcludeID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// CreatePost inserts the post and links post.Tags, creating unknown tags by slug
	CreatePost(ctx context.Context, post *models.Post) error
	// UpdatePost saves title, content and attachment and replaces the tag set
	UpdatePost(ctx context.Context, post *models.Post) error
	// DeletePost removes the post with its comments, likes, notifications and tag links
	DeletePost(ctx context.Context, id uint) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// ListPosts returns matching posts newest first with the total match count
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, int64, error)
	// GetFeaturedPost returns the most liked post created since the given time
	GetFeaturedPost(ctx context.Context, since time.Time) (*models.Post, error)
	// GetRelatedPosts ranks other posts by the number of tags they share with post
	GetRelatedPosts(ctx context.Context, post *models.Post, limit int) ([]models.Post, error)
	IncrementViews(ctx context.Context, id uint) error
	GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, post.Tags)
		if err != nil {
			return err
		}
		post.Tags = nil
		if err := tx.Omit("Tags", "Author").Create(post).Error; err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		post.Tags = tags
		return nil
	}))
}

func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, post.Tags)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Post{ID: post.ID}).
			Select("title", "content", "attachment").
			Updates(map[string]interface{}{
				"title":      post.Title,
				"content":    post.Content,
				"attachment": post.Attachment,
			}).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Post{ID: post.ID}).Association("Tags").Replace(tags); err != nil {
			return err
		}
		post.Tags = tags
		return nil
	}))
}

func resolveTags(tx *gorm.DB, wanted []models.Tag) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(wanted))
	for _, w := range wanted {
		var tag models.Tag
		err := tx.Where(models.Tag{Slug: w.Slug}).Attrs(models.Tag{Name: w.Name}).FirstOrCreate(&tag).Error
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, id).Error; err != nil {
			return err
		}
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)

		if err := tx.Where("post_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	}))
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author.Profile").Preload("Tags").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author.Profile").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern turns a search query into a LIKE pattern matching it as a
// literal substring
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.ExcludeID != 0 {
		q = q.Where("posts.id <> ?", filter.ExcludeID)
	}
	if filter.Query != "" {
		like := containsPattern(filter.Query)
		q = q.Where(`posts.title ILIKE ? ESCAPE '\' OR posts.content ILIKE ? ESCAPE '\'`, like, like)
	}
	if filter.TagSlug != "" {
		q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Preload("Author.Profile").Preload("Tags").Order("posts.created_at DESC, posts.id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostgresPostRepository) GetFeaturedPost(ctx context.Context, since time.Time) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author.Profile").
		Preload("Tags").
		Where("created_at >= ?", since).
		Order("likes DESC, created_at DESC, id DESC").
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetRelatedPosts(ctx context.Context, post *models.Post, limit int) ([]models.Post, error) {
	if len(post.Tags) == 0 {
		return nil, nil
	}
	tagIDs := make([]uint, 0, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs = append(tagIDs, t.ID)
	}

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, COUNT(post_tags.tag_id) AS same_tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id IN ? AND posts.id <> ?", tagIDs, post.ID).
		Group("posts.id").
		Order("same_tags DESC, posts.created_at DESC").
		Limit(limit).
		Preload("Author.Profile").
		Preload("Tags").
		Find(&posts).Error
	return posts, err
}

// IncrementViews bumps the view counter with a relative update
func (r *PostgresPostRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("viewer", gorm.Expr("viewer + 1")).Error
}

func (r *PostgresPostRepository) GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}
