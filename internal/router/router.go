package router

import (
	"github.com/gin-gonic/gin"
	"github.com/onebite/onebite-backend/config"
	"github.com/onebite/onebite-backend/internal/app/controller"
	"github.com/onebite/onebite-backend/internal/middleware"
)

type Router struct {
	authController  *controller.AuthController
	splitController *controller.SplitController
	authMiddleware  *middleware.AuthMiddleware
	config          *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	splitController *controller.SplitController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:  authController,
		splitController: splitController,
		authMiddleware:  authMiddleware,
		config:          cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "ONEBITE API is running",
		})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/kakao", r.authController.LoginKakao)
			auth.POST("/naver", r.authController.LoginNaver)
			auth.POST("/google", r.authController.LoginGoogle)
			auth.POST("/apple", r.authController.LoginApple)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		splits := api.Group("/splits")
		{
			splits.GET("", r.splitController.ListSplits)
			splits.GET("/my", r.authMiddleware.Authenticate(), r.splitController.GetMySplits)
			splits.GET("/:id", r.splitController.GetSplitByID)
			splits.POST("", r.authMiddleware.Authenticate(), r.splitController.CreateSplit)
			splits.POST("/:id/join", r.authMiddleware.Authenticate(), r.splitController.JoinSplit)
			splits.PATCH("/:id/cancel", r.authMiddleware.Authenticate(), r.splitController.CancelSplit)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
