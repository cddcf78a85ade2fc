package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/metrics"
	"github.com/layer-3/attendease/ports"
	"github.com/layer-3/attendease/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	svc *service.AttendanceService,
	presenter *service.Presenter,
	resolver ports.IdentityResolver,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logging(logger), Instrument(m))

	router.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	handlers := NewAttendanceHandlers(svc, presenter, m)
	staff := RequireRole(core.RoleFaculty, core.RoleAdmin)

	api := router.Group("/api")
	api.Use(AuthMiddleware(resolver))
	{
		api.GET("/courses", handlers.Courses)
		api.POST("/verify", handlers.Verify)
		api.POST("/checkin", RequireRole(core.RoleStudent), handlers.CheckIn)
		api.GET("/me/stats", RequireRole(core.RoleStudent), handlers.MyStats)

		course := api.Group("/courses/:id", staff)
		{
			course.POST("/presentation", handlers.StartPresentation)
			course.GET("/presentation", handlers.CurrentPresentation)
			course.DELETE("/presentation", handlers.StopPresentation)
			course.POST("/presentation/regenerate", handlers.RegeneratePresentation)
			course.GET("/presentation/qr.png", handlers.PresentationQR)
			course.GET("/attendance", handlers.CourseAttendance)
		}

		stats := api.Group("/stats", staff)
		{
			stats.GET("/courses", handlers.CourseStats)
			stats.GET("/institution", handlers.InstitutionStats)
		}
	}

	return router
}
