package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nairobify-be/controllers"
	"nairobify-be/logger"
	"nairobify-be/middlewares"
)

type RouterConfig struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string
	Cookie           middlewares.CookieOptions
}

// NewRouter builds the HTTP surface of the engine.
func NewRouter(cfg RouterConfig, ic *controllers.IssueController) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(logger.Recovery(log), logger.GinMiddleware(log))
	if len(cfg.CORSAllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", logger.RequestIDHeader},
			ExposeHeaders:    []string{logger.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	identity := middlewares.ReporterIdentity(cfg.Cookie)
	ReferenceRoutes(r, identity)
	IssueRoutes(r, ic, identity)
	return r
}
