package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"omiit/config"
	"omiit/handlers"
	"omiit/middleware"
	"omiit/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the wired components the router exposes.
type Deps struct {
	Config  *config.Config
	Auth    *middleware.Authenticator
	Posts   *handlers.PostHandler
	Uploads *handlers.UploadHandler
	Hub     *websocket.Manager
	// Redis backs the upload rate limit when set.
	Redis *redis.Client
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(d.Config.Proxies()); err != nil {
		slog.Warn("ignoring TRUSTED_PROXIES", "error", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.StructuredLogger())
	router.Use(middleware.RequestMetrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.Origins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Omiit API is running",
			"time":    time.Now().Unix(),
			"ws":      "WebSocket available at /ws",
			"clients": d.Hub.ConnectedClients(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Locally stored covers
	router.Static("/"+strings.Trim(d.Config.PublicPath, "/"), d.Config.PublicDir)

	router.GET("/ws", gin.WrapF(websocket.Handler(d.Hub, d.Auth)))

	limiter := middleware.RateLimit(middleware.NewRateLimiter(d.Redis, "uploads", d.Config.UploadRateLimit, time.Minute))

	// Uploads
	router.POST("/posts/upload", limiter, d.Uploads.UploadLocal)
	router.POST("/posts/cloudUpload", limiter, d.Uploads.UploadRemote)

	// Posts
	router.GET("/posts", d.Posts.GetPosts)
	router.PATCH("/posts/update/:postId", limiter, d.Posts.UpdatePost)
	router.POST("/:userId/add-post", limiter, d.Posts.CreatePost)
	router.DELETE("/:posterId/posts/:postId", d.Auth.RequireAuth(), d.Posts.DeletePost)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"statusCode": http.StatusNotFound,
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
		})
	})

	return router
}
