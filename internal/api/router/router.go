package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-alarm/backend/config"
	"smart-alarm/backend/internal/api/handler"
	"smart-alarm/backend/internal/api/middleware"
	"smart-alarm/backend/pkg/jwt"
	"smart-alarm/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册限流防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetMe)
				users.PUT("/me", h.User.UpdateMe)
				users.GET("", middleware.RoleAuth("admin"), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth("admin"), h.User.GetUser)
				users.PUT("/:id", middleware.RoleAuth("admin"), h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
			}

			// 闹钟模块（计划为子资源）
			alarms := authorized.Group("/alarms")
			{
				alarms.GET("", h.Alarm.ListAlarms)
				alarms.GET("/:id", h.Alarm.GetAlarm)
				alarms.POST("", h.Alarm.CreateAlarm)
				alarms.PUT("/:id", h.Alarm.UpdateAlarm)
				alarms.DELETE("/:id", h.Alarm.DeleteAlarm)
				alarms.GET("/:id/next-trigger", h.Alarm.GetNextTrigger)
				alarms.POST("/:id/schedules", h.Alarm.AddSchedule)
				alarms.PUT("/:id/schedules/:schedule_id", h.Alarm.UpdateSchedule)
				alarms.DELETE("/:id/schedules/:schedule_id", h.Alarm.RemoveSchedule)
			}

			// 例外时段模块
			periods := authorized.Group("/exception-periods")
			{
				periods.GET("", h.ExceptionPeriod.ListPeriods)
				periods.GET("/:id", h.ExceptionPeriod.GetPeriod)
				periods.POST("", h.ExceptionPeriod.CreatePeriod)
				periods.PUT("/:id", h.ExceptionPeriod.UpdatePeriod)
				periods.DELETE("/:id", h.ExceptionPeriod.DeletePeriod)
			}

			// 节假日模块（参考数据维护为管理员专用）
			holidays := authorized.Group("/holidays")
			{
				holidays.GET("", h.Holiday.ListHolidays)
				holidays.POST("/import", middleware.RoleAuth("admin"), h.Holiday.ImportHolidays)
				holidays.POST("/upload", middleware.RoleAuth("admin"), h.Holiday.UploadHolidays)
			}

			// 触发评估模块（运维接口为管理员专用）
			triggers := authorized.Group("/triggers")
			{
				triggers.GET("/due", middleware.RoleAuth("admin"), h.Trigger.GetDueAlarms)
				triggers.POST("/evaluate", middleware.RoleAuth("admin"), h.Trigger.EvaluateTick)
			}

			// 触发事件模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Trigger.ListEvents)
				events.POST("/:id/acknowledge", h.Trigger.AcknowledgeEvent)
			}

			// 通知模块
			authorized.GET("/notifications", h.Notification.ListNotifications)

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/alarms.xlsx", h.Export.ExportAlarmsExcel)
				export.GET("/alarms.ics", h.Export.ExportAlarmsICS)
			}
		}
	}

	return r
}
