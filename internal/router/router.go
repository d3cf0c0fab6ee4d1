package router

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/events"
	"github.com/anonto42/nano-blog/backend/internal/handlers"
	"github.com/anonto42/nano-blog/backend/internal/metrics"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/repositories/memory"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/internal/session"
	"github.com/anonto42/nano-blog/backend/internal/validators"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/filestore"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/mailer"
	"github.com/anonto42/nano-blog/backend/pkg/readingtime"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Repositories groups the storage the services run on
type Repositories struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Notifications repositories.NotificationRepository
	Contacts      repositories.ContactRepository
	Announcements repositories.AnnouncementRepository
}

// MemoryRepositories backs every repository with one in-process store
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:         store,
		Posts:         store,
		Comments:      store,
		Likes:         store,
		Notifications: store,
		Contacts:      store,
		Announcements: store,
	}
}

// Dependencies is everything SetupRoutes wires into handlers
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Repos     Repositories
	Sessions  session.Store
	Files     filestore.Store
	Publisher events.Publisher
	Mailer    mailer.Sender // nil disables staff emails
	Firebase  *firebase.App // nil disables the firebase login route
}

// NewDependencies picks a backend for every concern from the configuration
// and the connections that were opened.
func NewDependencies(ctx context.Context, cfg *config.Config, db *config.DB, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if db.Postgres != nil {
		deps.Repos = Repositories{
			Users:         repositories.NewPostgresUserRepository(db.Postgres),
			Posts:         repositories.NewPostgresPostRepository(db.Postgres),
			Comments:      repositories.NewPostgresCommentRepository(db.Postgres),
			Likes:         repositories.NewPostgresLikeRepository(db.Postgres),
			Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
			Contacts:      repositories.NewPostgresContactRepository(db.Postgres),
			Announcements: repositories.NewPostgresAnnouncementRepository(db.Postgres),
		}
		logger.Info("Using PostgreSQL storage")
	} else {
		deps.Repos = MemoryRepositories(memory.New())
		logger.Warn("Using in-memory storage, data is lost on restart")
	}

	if db.Redis != nil {
		deps.Sessions = session.NewRedisStore(db.Redis)
	} else {
		deps.Sessions = session.NewMemoryStore()
	}

	if db.Mongo != nil {
		files, err := filestore.NewGridFS(db.Mongo.Database(cfg.MongoDatabase))
		if err != nil {
			return nil, err
		}
		deps.Files = files
		logger.Info("Storing uploads in GridFS", zap.String("database", cfg.MongoDatabase))
	} else {
		files, err := filestore.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		deps.Files = files
		logger.Info("Storing uploads on disk", zap.String("dir", cfg.UploadDir))
	}

	if len(cfg.KafkaBrokers) > 0 {
		deps.Publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("Publishing events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		deps.Publisher = events.NoopPublisher{}
	}

	if cfg.SMTP.Enabled() {
		deps.Mailer = mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Warn("Firebase disabled", zap.Error(err))
		} else {
			deps.Firebase = app
		}
	}

	return deps, nil
}

// Services are the domain services shared by the handlers
type Services struct {
	Comments      *services.CommentService
	Likes         *services.LikeService
	Notifications *services.NotificationService
	Posts         *services.PostService
	Announcements *services.AnnouncementService
	Contact       *services.ContactService
}

// NewServices builds the services on top of the dependencies
func NewServices(d *Dependencies) *Services {
	cfg := d.Config
	comments := services.NewCommentService(d.Repos.Comments, d.Repos.Posts, d.Publisher, d.Metrics, d.Logger, cfg.CommentsPerPage)
	likes := services.NewLikeService(d.Repos.Likes, d.Repos.Posts, d.Publisher, d.Metrics, d.Logger)
	return &Services{
		Comments:      comments,
		Likes:         likes,
		Notifications: services.NewNotificationService(d.Repos.Notifications, d.Logger),
		Posts: services.NewPostService(
			d.Repos.Posts, comments, likes, d.Files,
			readingtime.New(cfg.ReadingWPM, cfg.ReadingRounding),
			d.Publisher, d.Logger, cfg.PostsPerPage,
		),
		Announcements: services.NewAnnouncementService(d.Repos.Announcements, d.Logger, cfg.AnnouncementMode),
		Contact:       services.NewContactService(d.Repos.Contacts, d.Repos.Users, d.Mailer, cfg.StaffEmail, d.Publisher, d.Logger),
	}
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d *Dependencies) {
	logger := d.Logger
	cfg := d.Config

	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)
	e.Use(middleware.Metrics(d.Metrics.Request))
	e.Use(session.Middleware(d.Sessions, logger))

	svc := NewServices(d)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	if cfg.MetricsPort == "" {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	mediaHandler := handlers.NewMediaHandler(d.Files)
	mediaHandler.RegisterMediaRoutes(e)

	// --- Public API, the user is resolved when a token is sent ---
	api := e.Group("/api/v1")
	api.Use(middleware.OptionalJWTAuth(cfg.JWTSecret))
	api.Use(middleware.UnreadNotifications(svc.Notifications, logger))

	authHandler := handlers.NewAuthHandler(d.Repos.Users, d.Firebase, d.Sessions, cfg.JWTSecret, cfg.JWTTTL, logger)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))
	logger.Debug("Auth routes configured")

	postHandler := handlers.NewPostHandler(svc.Posts, svc.Comments, logger)
	postHandler.RegisterPostRoutes(api)

	commentHandler := handlers.NewCommentHandler(svc.Comments, svc.Likes)
	commentHandler.RegisterCommentRoutes(api)

	likeHandler := handlers.NewLikeHandler(svc.Likes)
	likeHandler.RegisterLikeRoutes(api)

	userHandler := handlers.NewUserHandler(d.Repos.Users, svc.Posts, d.Files, logger)
	userHandler.RegisterUserRoutes(api)

	contactHandler := handlers.NewContactHandler(svc.Contact)
	contactHandler.RegisterContactRoutes(api)

	announcementHandler := handlers.NewAnnouncementHandler(svc.Announcements, svc.Posts)
	announcementHandler.RegisterAnnouncementRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Announcements)
	notificationHandler.RegisterContextRoutes(api)
	logger.Debug("Public routes configured")

	// --- Protected routes (require JWT authentication) ---
	protected := api.Group("", middleware.JWTAuthMiddleware(cfg.JWTSecret))
	postHandler.RegisterAuthorRoutes(protected)
	userHandler.RegisterProfileRoutes(protected)
	notificationHandler.RegisterNotificationRoutes(protected)
	logger.Debug("Protected routes configured")

	// --- Staff only ---
	admin := api.Group("/admin", middleware.StaffOnly(d.Repos.Users))
	contactHandler.RegisterAdminRoutes(admin)
	announcementHandler.RegisterAdminRoutes(admin)
	logger.Debug("Admin routes configured")

	logger.Info("All routes configured")
}
