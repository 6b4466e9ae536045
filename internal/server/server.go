package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/studentmanager/internal/config"
	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/jobs"
	"anoa.com/studentmanager/internal/middleware"
	"anoa.com/studentmanager/pkg/storage"
	"anoa.com/studentmanager/pkg/token"
	appValidator "anoa.com/studentmanager/pkg/validator"

	bookHttp "anoa.com/studentmanager/internal/modules/book/delivery/http"
	bookRepo "anoa.com/studentmanager/internal/modules/book/repository"
	bookService "anoa.com/studentmanager/internal/modules/book/service"

	classHttp "anoa.com/studentmanager/internal/modules/class/delivery/http"
	classRepo "anoa.com/studentmanager/internal/modules/class/repository"
	classService "anoa.com/studentmanager/internal/modules/class/service"

	searchService "anoa.com/studentmanager/internal/modules/search/service"

	statHttp "anoa.com/studentmanager/internal/modules/stat/delivery/http"
	statRepo "anoa.com/studentmanager/internal/modules/stat/repository"
	statService "anoa.com/studentmanager/internal/modules/stat/service"

	studentHttp "anoa.com/studentmanager/internal/modules/student/delivery/http"
	studentRepo "anoa.com/studentmanager/internal/modules/student/repository"
	studentService "anoa.com/studentmanager/internal/modules/student/service"

	userHttp "anoa.com/studentmanager/internal/modules/user/delivery/http"
	userService "anoa.com/studentmanager/internal/modules/user/service"

	"anoa.com/studentmanager/internal/modules/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, scheduler *jobs.Scheduler, logger *slog.Logger) (*Server, error) {
	if err := registerBindingRules(); err != nil {
		return nil, err
	}

	imageStorage, err := newImageStorage(cfg)
	if err != nil {
		return nil, err
	}
	assets := storage.NewAssetManager(imageStorage, logger, entity.DefaultAvatar, entity.DefaultCover)

	searchSvc := newSearchService(cfg, logger)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	classRepository := classRepo.NewClassRepository(db)
	classSvc := classService.NewClassService(classRepository)
	classHandler := classHttp.NewClassHandler(classSvc)

	studentRepository := studentRepo.NewStudentRepository(db)
	studentSvc := studentService.NewStudentService(studentRepository, classRepository, imageStorage, assets, searchSvc, logger)
	studentHandler := studentHttp.NewStudentHandler(studentSvc)

	bookRepository := bookRepo.NewBookRepository(db)
	bookSvc := bookService.NewBookService(bookRepository, imageStorage, assets, searchSvc, logger)
	bookHandler := bookHttp.NewBookHandler(bookSvc)

	throttle := userService.NewLoginThrottle(redisClient, cfg.LoginMaxFailure, cfg.LoginLockout)
	authSvc := userService.NewAuthService(studentRepository, tokens, throttle, assets, logger)
	authHandler := userHttp.NewAuthHandler(authSvc)

	statHandler := statHttp.NewStatHandler(statService.NewStatService(statRepo.NewStatRepository(db)))
	jobHandler := jobs.NewHandler(scheduler)

	webHandler := web.NewHandler(studentSvc)
	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.SetHTMLTemplate(templates)

	if cfg.StorageDriver == "local" {
		router.Static(strings.TrimSuffix(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	authMiddleware := middleware.NewAuthMiddleware(studentRepository, tokens)

	router.GET("/", webHandler.Index)

	api := router.Group("/api")

	// Public routes
	api.POST("/login/user", authHandler.Login)
	api.POST("/token/refresh", authHandler.Refresh)

	// Student routes
	api.GET("/details/user", authMiddleware.RequireStudent(), authHandler.GetDetails)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(gin.BasicAuth(gin.Accounts{cfg.AdminUsername: cfg.AdminPassword}))
	{
		admin.GET("/stats", statHandler.GetTotals)
		admin.POST("/jobs/:name/run", jobHandler.RunJob)

		admin.POST("/classes", classHandler.CreateClass)
		admin.GET("/classes", classHandler.GetAllClasses)
		admin.GET("/classes/:id", classHandler.GetClass)
		admin.PUT("/classes/:id", classHandler.UpdateClass)
		admin.DELETE("/classes/:id", classHandler.DeleteClass)

		admin.POST("/students", studentHandler.CreateStudent)
		admin.GET("/students", studentHandler.GetAllStudents)
		admin.GET("/students/export", studentHandler.ExportStudents)
		admin.GET("/students/:id", studentHandler.GetStudent)
		admin.PUT("/students/:id", studentHandler.UpdateStudent)
		admin.DELETE("/students/:id", studentHandler.DeleteStudent)

		admin.POST("/books", bookHandler.CreateBook)
		admin.GET("/books", bookHandler.GetAllBooks)
		admin.GET("/books/:id", bookHandler.GetBook)
		admin.PUT("/books/:id", bookHandler.UpdateBook)
		admin.DELETE("/books/:id", bookHandler.DeleteBook)
	}

	router.NoRoute(webHandler.NotFound)

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func registerBindingRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return appValidator.RegisterRules(v)
}

func newImageStorage(cfg *config.Config) (storage.ImageStorage, error) {
	if cfg.StorageDriver == "cloudinary" {
		imageStorage, err := storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			CloudName:    cfg.CloudinaryCloudName,
			APIKey:       cfg.CloudinaryAPIKey,
			APISecret:    cfg.CloudinaryAPISecret,
			UploadFolder: cfg.CloudinaryUploadFolder,
			MediaURL:     cfg.MediaURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cloudinary storage: %w", err)
		}
		return imageStorage, nil
	}

	imageStorage, err := storage.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	return imageStorage, nil
}

func newSearchService(cfg *config.Config, logger *slog.Logger) searchService.SearchService {
	meiliHost := cfg.MeiliSearchHost
	if meiliHost == "" {
		logger.Info("MEILISEARCH_HOST is not set, admin search uses the database")
		return searchService.NewNoopSearchService()
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	if cfg.MeiliMasterKey == "" {
		logger.Warn("MEILI_MASTER_KEY is not set")
	}

	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return searchService.NewMeiliSearchService(meiliClient, logger)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
