package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cliplens/cliplens/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, allowedOrigin string) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(allowedOrigin))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "cliplens-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	jobs := r.Group("/jobs")
	{
		// POST /jobs - Submit a new summarization job
		jobs.POST("", jobHandler.CreateJob)

		// GET /jobs/:job_id - Get job status and results
		jobs.GET("/:job_id", jobHandler.GetJob)
	}

	return r
}
