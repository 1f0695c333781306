package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"incidentlog/internal/auth"
	"incidentlog/internal/incident"
	"incidentlog/internal/middleware"
)

type Deps struct {
	Log            *slog.Logger
	Gate           *middleware.Gate
	Auth           *auth.Handler
	Incidents      *incident.Handler
	Attachments    bool
	CORSOrigins    []string
	ExposeInternal bool
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(d.Log),
	)

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.Errors(d.Log, d.ExposeInternal))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Incident log API is running...")
	})

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ───────────────────────── AUTH ─────────────────────────
	authGroup := r.Group("/auth")
	{
		// optional so an admin caller may create another admin
		authGroup.POST("/register", d.Gate.Optional(), d.Auth.Register)
		authGroup.POST("/login", d.Auth.Login)

		protected := authGroup.Group("")
		protected.Use(d.Gate.Required())
		{
			protected.GET("/profile", d.Auth.Profile)
			protected.POST("/logout", d.Auth.Logout)
			protected.PUT("/password", d.Auth.ChangePassword)
			protected.PUT("/users/:id/role", d.Gate.RequireAdmin(), d.Auth.SetRole)
		}
	}

	// ───────────────────────── INCIDENTS ─────────────────────────
	incidents := r.Group("/incidents")
	{
		incidents.GET("", d.Gate.Optional(), d.Incidents.List)
		incidents.GET("/:id", d.Gate.Optional(), d.Incidents.Get)
		incidents.POST("", d.Gate.Required(), d.Incidents.Create)
		incidents.PUT("/:id", d.Gate.Required(), d.Incidents.Update)
		incidents.DELETE("/:id", d.Gate.Required(), d.Gate.RequireAdmin(), d.Incidents.Delete)

		if d.Attachments {
			incidents.POST("/:id/attachments", d.Gate.Required(), d.Incidents.UploadAttachment)
		}
	}

	return r
}
