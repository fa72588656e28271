package api

import (
	"github.com/bioqa/manager/internal/api/handlers"
	"github.com/bioqa/manager/internal/config"
	"github.com/bioqa/manager/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config   *config.Config
	Auth     *handlers.AuthHandler
	Question *handlers.QuestionHandler
	Simple   *handlers.SimpleHandler
	Health   *handlers.HealthHandler
}

// NewRouter wires all routes. Question reads are open with optional
// identity; mutations require a valid token. The simple endpoints are open
// but rate limited since they block server resources while polling.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(deps.Config.Server.GinMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())

	limiter := middleware.NewRateLimiter(120)
	router.Use(limiter.RateLimit())

	router.GET("/healthz", deps.Health.HandleLiveness)

	jwtSecret := deps.Config.Auth.JWTSecret

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", deps.Health.HandleHealth)

		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", deps.Auth.HandleRegister)
			auth.POST("/login", deps.Auth.HandleLogin)
			auth.GET("/me", middleware.AuthJWT(jwtSecret), deps.Auth.HandleMe)
		}

		questions := apiGroup.Group("/q")
		{
			open := questions.Group("", middleware.OptionalAuth(jwtSecret))
			{
				open.GET("/:id", deps.Question.HandleGet)
				open.GET("/:id/feedback", deps.Question.HandleFeedbackList)
				open.GET("/:id/tasks", deps.Question.HandleTasks)
				open.GET("/:id/subgraph", deps.Question.HandleSubgraph)
			}

			protected := questions.Group("", middleware.AuthJWT(jwtSecret))
			{
				protected.GET("", deps.Question.HandleList)
				protected.POST("", deps.Question.HandleCreate)
				protected.POST("/:id", deps.Question.HandleEdit)
				protected.DELETE("/:id", deps.Question.HandleDelete)
				protected.POST("/:id/feedback", deps.Question.HandleFeedbackCreate)
				protected.POST("/:id/answer", deps.Question.HandleAnswer)
				protected.POST("/:id/refresh_kg", deps.Question.HandleRefreshKG)
			}
		}

		simple := apiGroup.Group("/simple")
		{
			simple.POST("/quick/", deps.Simple.HandleQuick)
			simple.GET("/expand/:type1/:id1/:type2", deps.Simple.HandleExpand)
			simple.GET("/similarity/:type1/:id1/:type2/:by_type", deps.Simple.HandleSimilarity)
			simple.POST("/enriched/:type1/:type2", deps.Simple.HandleEnriched)
		}
	}

	return router
}
