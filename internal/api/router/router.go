package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutordesk/config"
	"tutordesk/internal/api/handler"
	"tutordesk/internal/api/middleware"
	"tutordesk/internal/dto"
	"tutordesk/pkg/jwt"
	"tutordesk/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时跳过限流与黑名单
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	dto.RegisterValidators()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, cfg.Server.RateWindow))
	{
		// 访问口令（无需认证）
		v1.POST("/verify-access", h.Access.VerifyAccess)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb), middleware.RoleAuth(jwt.RoleStaff))
		{
			authorized.POST("/logout", h.Access.Logout)

			// 导师模块
			tutors := authorized.Group("/tutors")
			{
				tutors.GET("", h.Tutor.ListTutors)
				tutors.GET("/:id", h.Tutor.GetTutor)
				tutors.POST("", h.Tutor.CreateTutor)
				tutors.PUT("/:id", h.Tutor.UpdateTutor)
				tutors.DELETE("/:id", h.Tutor.DeleteTutor)
			}

			// 时间表模块
			timetable := authorized.Group("/timetable")
			{
				timetable.GET("/all", h.Timetable.ListAll)
				timetable.GET("/tutor/:id", h.Timetable.ListByTutor)
				timetable.GET("/grid", h.Timetable.Grid)
				timetable.POST("/entries", h.Timetable.CreateEntry)
				timetable.PUT("/entries/:id", h.Timetable.UpdateEntry)
				timetable.DELETE("/entries/:id", h.Timetable.DeleteEntry)
				timetable.POST("/import", h.Timetable.Import)
			}

			// 周排课会话
			sessions := authorized.Group("/scheduler/sessions")
			{
				sessions.POST("", h.Scheduler.CreateSession)
				sessions.GET("/:id", h.Scheduler.GetSession)
				sessions.GET("/:id/days/:day", h.Scheduler.DayEntries)
				sessions.POST("/:id/entries", h.Scheduler.AddEntry)
				sessions.DELETE("/:id", h.Scheduler.DeleteSession)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/timetable", h.Export.ExportTimetable)
			}
		}
	}

	return r
}

// healthCheck 数据库可达时返回 200，否则 503；db 为 nil 时只报告进程存活
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	}
}
