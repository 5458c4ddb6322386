package app

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Hritabrataghosh/neon-tasks/internal/auth"
	"github.com/Hritabrataghosh/neon-tasks/internal/cache"
	"github.com/Hritabrataghosh/neon-tasks/internal/config"
	"github.com/Hritabrataghosh/neon-tasks/internal/handlers"
	"github.com/Hritabrataghosh/neon-tasks/internal/ratelimit"
	"github.com/Hritabrataghosh/neon-tasks/internal/repo"
	"github.com/Hritabrataghosh/neon-tasks/internal/service"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *mongo.Database, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	var apiLimiter, authLimiter gin.HandlerFunc
	if rdb != nil && cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter(rdb, "ratelimit:")
		apiLimiter = ratelimit.Middleware(limiter, cfg.RateLimit.APIMax, cfg.RateLimit.Window.Duration())
		authLimiter = ratelimit.Middleware(limiter, cfg.RateLimit.AuthMax, cfg.RateLimit.Window.Duration())
	} else {
		apiLimiter = ratelimit.Middleware(nil, 0, 0)
		authLimiter = apiLimiter
	}

	api := r.Group("/api", apiLimiter)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration())
	userRepo := repo.NewMongoUserRepo(db)
	userSvc := service.NewUserService(userRepo)
	authHandler := handlers.NewAuthHandler(tokens, userSvc)
	registerAuthRoutes(api, authHandler, authLimiter)

	protected := api.Group("", auth.RequireToken(tokens))
	taskRepo := repo.NewMongoTaskRepo(db)
	var taskCache *cache.TaskCache
	if rdb != nil {
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}
	taskSvc := service.NewTaskService(taskRepo, taskCache)
	taskHandler := handlers.NewTaskHandler(taskSvc)
	registerTaskRoutes(protected, taskHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Neon Tasks API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"status":  "operational",
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.GET("/todos", h.List)
	api.GET("/todos/stats", h.Stats)
	api.GET("/todos/stats/dashboard", h.DashboardStats)
	api.GET("/todos/:id", h.GetByID)
	api.POST("/todos", h.Create)
	api.PUT("/todos/:id", h.Update)
	api.PATCH("/todos/:id/toggle", h.Toggle)
	api.DELETE("/todos/:id", h.Delete)
	api.DELETE("/todos/bulk/completed", h.BulkDeleteCompleted)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, limiter gin.HandlerFunc) {
	api.POST("/auth/register", limiter, h.Register)
	api.POST("/auth/login", limiter, h.Login)
}
