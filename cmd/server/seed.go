package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/router"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const seedConcurrency = 4

var seedTags = []string{"go", "web", "databases", "devops", "design", "testing", "security", "career"}

func seedCmd() *cobra.Command {
	var (
		numPosts   int
		numAuthors int
		password   string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake authors, posts and comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if numPosts < 1 || numAuthors < 1 {
				return errors.New("--posts and --authors must be positive")
			}
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.CloseDB()

			if db.Postgres == nil {
				return errors.New("seed needs STORAGE=postgres")
			}
			if err := repositories.AutoMigrate(db.Postgres); err != nil {
				return fmt.Errorf("failed to auto migrate models: %w", err)
			}

			deps, err := router.NewDependencies(cmd.Context(), cfg, db, log)
			if err != nil {
				return err
			}
			defer deps.Publisher.Close()

			return seed(cmd.Context(), deps, router.NewServices(deps), log, numAuthors, numPosts, password)
		},
	}
	cmd.Flags().IntVar(&numPosts, "posts", 20, "Number of posts to create")
	cmd.Flags().IntVar(&numAuthors, "authors", 3, "Number of authors to create")
	cmd.Flags().StringVar(&password, "password", "password123", "Password of the created authors")
	return cmd
}

func seed(ctx context.Context, deps *router.Dependencies, svc *router.Services, log *zap.Logger, numAuthors, numPosts int, password string) error {
	log.Info("Seeding", zap.Int("authors", numAuthors), zap.Int("posts", numPosts))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	authors := make([]*services.Actor, 0, numAuthors)
	for i := 0; i < numAuthors; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), gofakeit.Number(10, 9999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			IsStaff:  i == 0,
		}
		if err := deps.Repos.Users.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create author: %w", err)
		}
		authors = append(authors, &services.Actor{ID: user.ID, Username: user.Username, IsStaff: user.IsStaff})
		log.Info("Created author", zap.String("username", user.Username), zap.Bool("staff", user.IsStaff))
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, seedConcurrency)
	for i := 0; i < numPosts; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			author := authors[index%len(authors)]
			form := models.PostForm{
				Title:   gofakeit.Sentence(gofakeit.Number(3, 8)),
				Content: fakeContent(),
				Tags:    fakeTags(),
			}
			post, err := svc.Posts.Create(ctx, author, form, nil)
			if err != nil {
				log.Error("Failed to create post", zap.Int("index", index+1), zap.Error(err))
				return
			}

			// readers comment on each other's posts, some with a reply
			for j := 0; j < gofakeit.Number(0, 4); j++ {
				commenter := authors[gofakeit.Number(0, len(authors)-1)]
				comment, err := svc.Comments.Create(ctx, commenter, post, models.CreateCommentRequest{Body: gofakeit.Sentence(gofakeit.Number(4, 20))})
				if err != nil {
					log.Error("Failed to create comment", zap.Uint("post_id", post.ID), zap.Error(err))
					continue
				}
				if gofakeit.Bool() {
					replier := authors[gofakeit.Number(0, len(authors)-1)]
					reply := models.CreateCommentRequest{Body: gofakeit.Sentence(gofakeit.Number(3, 12)), ParentID: fmt.Sprint(comment.ID)}
					if _, err := svc.Comments.Create(ctx, replier, post, reply); err != nil {
						log.Error("Failed to create reply", zap.Uint("comment_id", comment.ID), zap.Error(err))
					}
				}
			}
			log.Debug("Created post", zap.Int("index", index+1), zap.String("slug", post.Slug))
		}(i)
	}
	wg.Wait()

	log.Info("Seeding finished")
	return nil
}

func fakeContent() string {
	paragraphs := make([]string, gofakeit.Number(2, 6))
	for i := range paragraphs {
		paragraphs[i] = "<p>" + gofakeit.Paragraph(1, gofakeit.Number(3, 8), gofakeit.Number(8, 20), " ") + "</p>"
	}
	return strings.Join(paragraphs, "\n")
}

func fakeTags() string {
	picked := append([]string(nil), seedTags...)
	gofakeit.ShuffleStrings(picked)
	return strings.Join(picked[:gofakeit.Number(1, 3)], ", ")
}
