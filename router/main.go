package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/simplelms/api/database"
	"github.com/simplelms/api/handlers"
	auth_handlers "github.com/simplelms/api/handlers/auth"
	content_handlers "github.com/simplelms/api/handlers/content"
	course_handlers "github.com/simplelms/api/handlers/course"
	forum_handlers "github.com/simplelms/api/handlers/forum"
	notification_handlers "github.com/simplelms/api/handlers/notification"
	search_handlers "github.com/simplelms/api/handlers/search"
	taxonomy_handlers "github.com/simplelms/api/handlers/taxonomy"
	"github.com/simplelms/api/services"
	"github.com/simplelms/api/utils"
	"github.com/simplelms/api/utils/auth"
	"github.com/simplelms/api/utils/cache"
	"github.com/simplelms/api/utils/middleware"
	"github.com/simplelms/api/utils/storage"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "simplelms-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Blob store for course images and attachments; optional in dev
	var blobStore *storage.BlobStore
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		blobStore, err = storage.NewBlobStore(storage.BlobConfig{
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    bucket,
			Region:    os.Getenv("S3_REGION"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			CDNURL:    os.Getenv("S3_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize blob store: %v. File uploads will be disabled.", err)
		}
	}

	// Services
	notificationService := services.NewNotificationService(db)
	membershipService := services.NewMembershipService(db)
	enrollmentService := services.NewEnrollmentService(db, notificationService)
	engagementService := services.NewEngagementService(db)
	certificateService := services.NewCertificateService(db, engagementService)
	forumService := services.NewForumService(db, notificationService)
	searchService := services.NewSearchService(db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, enrollmentService, membershipService, blobStore)
	contentHandler := content_handlers.NewContentHandler(db, membershipService, engagementService, certificateService, notificationService)
	taxonomyHandler := taxonomy_handlers.NewTaxonomyHandler(db)
	forumHandler := forum_handlers.NewForumHandler(db, forumService, membershipService)
	notificationHandler := notification_handlers.NewNotificationHandler(db, notificationService)
	searchHandler := search_handlers.NewSearchHandler(searchService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// User routes (protected)
	userGroup := api.Group("/user", authMiddleware.Required())
	userGroup.Get("/profile", authHandler.GetProfile)
	userGroup.Put("/profile", authHandler.UpdateProfile)
	userGroup.Get("/dashboard", authHandler.GetDashboard)
	userGroup.Get("/bookmarks", contentHandler.ListBookmarks)

	// Search (public)
	api.Get("/search", searchHandler.Search)

	// Courses routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)    // Public: list courses
	courses.Get("/:id", courseHandler.GetCourse)   // Public: course detail
	courses.Post("/", authMiddleware.Required(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.Required(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.Required(), courseHandler.DeleteCourse)

	// Enrollment and analytics
	courses.Post("/:id/enroll", authMiddleware.Required(), courseHandler.Enroll)
	courses.Post("/:id/batch-enroll", authMiddleware.Required(), courseHandler.BatchEnroll)
	courses.Get("/:id/analytics", authMiddleware.Required(), courseHandler.GetAnalytics)
	courses.Post("/:id/image", authMiddleware.Required(), courseHandler.UploadImage)

	// Course contents
	courses.Get("/:id/contents", authMiddleware.Required(), contentHandler.ListContents)
	courses.Post("/:id/contents", authMiddleware.Required(), contentHandler.CreateContent)

	// Progress and certificate
	courses.Get("/:id/progress", authMiddleware.Required(), contentHandler.GetProgress)
	courses.Get("/:id/certificate", authMiddleware.Required(), contentHandler.GetCertificate)

	// Course taxonomy
	courses.Post("/:id/categories/:categoryID", authMiddleware.Required(), taxonomyHandler.AttachCategory)
	courses.Delete("/:id/categories/:categoryID", authMiddleware.Required(), taxonomyHandler.DetachCategory)

	// Course forum
	courses.Get("/:id/threads", authMiddleware.Required(), forumHandler.ListThreads)
	courses.Post("/:id/threads", authMiddleware.Required(), forumHandler.CreateThread)
	courses.Get("/:id/forum/stats", authMiddleware.Required(), forumHandler.GetForumStats)

	// Announcements
	courses.Post("/:id/announce", authMiddleware.Required(), notificationHandler.Announce)

	// Contents routes (protected)
	contents := api.Group("/contents", authMiddleware.Required())
	contents.Put("/:id", contentHandler.UpdateContent)
	contents.Delete("/:id", contentHandler.DeleteContent)
	contents.Put("/:id/schedule", contentHandler.ScheduleContent)
	contents.Put("/:id/publish", contentHandler.PublishContent)
	contents.Put("/:id/unpublish", contentHandler.UnpublishContent)
	contents.Post("/:id/comments", contentHandler.CreateComment)
	contents.Get("/:id/comments", contentHandler.ListComments)
	contents.Post("/:id/complete", contentHandler.MarkComplete)
	contents.Delete("/:id/complete", contentHandler.UnmarkComplete)
	contents.Post("/:id/bookmark", contentHandler.ToggleBookmark)
	contents.Delete("/:id/bookmark", contentHandler.RemoveBookmark)
	contents.Post("/:id/tags/:tagID", taxonomyHandler.AttachTag)
	contents.Delete("/:id/tags/:tagID", taxonomyHandler.DetachTag)

	// Comment moderation
	api.Put("/comments/:id/moderate", authMiddleware.Required(), contentHandler.ModerateComment)

	// Threads and replies (protected)
	threads := api.Group("/threads", authMiddleware.Required())
	threads.Put("/:id", forumHandler.UpdateThread)
	threads.Delete("/:id", forumHandler.DeleteThread)
	threads.Post("/:id/pin", forumHandler.PinThread)
	threads.Post("/:id/lock", forumHandler.LockThread)
	threads.Get("/:id/replies", forumHandler.ListReplies)
	threads.Post("/:id/replies", forumHandler.CreateReply)

	api.Post("/replies/:id/solution", authMiddleware.Required(), forumHandler.MarkSolution)

	// Notifications (protected). read-all registers before :id/read so the
	// literal segment wins.
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/stats", notificationHandler.GetStats)
	notifications.Get("/preferences", notificationHandler.GetPreferences)
	notifications.Put("/preferences", notificationHandler.UpdatePreferences)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	// Taxonomy (categories and tags)
	categories := api.Group("/categories")
	categories.Get("/", taxonomyHandler.ListCategories) // Public: list categories
	categories.Post("/", authMiddleware.Required(), taxonomyHandler.CreateCategory)
	categories.Put("/:id", authMiddleware.Required(), taxonomyHandler.UpdateCategory)
	categories.Delete("/:id", authMiddleware.Required(), taxonomyHandler.DeleteCategory)

	tags := api.Group("/tags")
	tags.Get("/", taxonomyHandler.ListTags) // Public: list tags
	tags.Post("/", authMiddleware.Required(), taxonomyHandler.CreateTag)
	tags.Delete("/:id", authMiddleware.Required(), taxonomyHandler.DeleteTag)
}
