package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"roomio/backend/internal/dto"
	"roomio/backend/internal/model"
	"roomio/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestRequestService() (RequestService, ReservationService, *repository.Repository) {
	cfg := testConfig()
	repo := newMockRepository()
	logger := zap.NewNop()
	notifier := NewNotificationService(cfg, repo, nil, logger)
	reqSvc := NewRequestService(cfg, repo, notifier, logger)
	rsvSvc := NewReservationService(cfg, repo, notifier, logger)
	return reqSvc, rsvSvc, repo
}

var basicActor = Actor{ID: "u1", Role: model.RoleBasic}

// ── Submit 测试 ──

func TestRequestSubmit_Success(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	result, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end, Purpose: "小组讨论",
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if result.Status != model.RequestStatusPending {
		t.Errorf("期望状态=pending，实际=%s", result.Status)
	}
}

func TestRequestSubmit_DirectBookersRejected(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	req := &dto.SubmitRequestRequest{RoomID: room.RoomID, StartTime: start, EndTime: end}

	// 有直接预约权限的用户不走审批流
	_, err := svc.Submit(context.Background(), adminActor, req)
	if !errors.Is(err, ErrShouldBookDirectly) {
		t.Errorf("管理员提交申请应被拒绝，实际: %v", err)
	}

	instructor := Actor{ID: "i1", Role: model.RoleInstructor, CanReserve: true}
	_, err = svc.Submit(context.Background(), instructor, req)
	if !errors.Is(err, ErrShouldBookDirectly) {
		t.Errorf("有预约权讲师提交申请应被拒绝，实际: %v", err)
	}

	// 无预约权讲师可以走审批流
	plain := Actor{ID: "i2", Role: model.RoleInstructor}
	if _, err := svc.Submit(context.Background(), plain, req); err != nil {
		t.Errorf("无预约权讲师应可提交申请: %v", err)
	}
}

func TestRequestSubmit_ConflictPrecheck(t *testing.T) {
	svc, rsvSvc, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	if _, err := rsvSvc.Create(context.Background(), adminActor, &dto.CreateReservationRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("创建应成功: %v", err)
	}

	_, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if !errors.Is(err, ErrTimeConflict) {
		t.Errorf("已占用时段的申请应被拦截，实际: %v", err)
	}
}

// ── Review 测试 ──

func TestRequestReview_ApproveCreatesReservation(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	submitted, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	result, err := svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}
	if result.Request.Status != model.RequestStatusApproved {
		t.Errorf("期望状态=approved，实际=%s", result.Request.Status)
	}
	if result.Reservation == nil {
		t.Fatal("通过审批应返回生成的预约")
	}

	// 生成的预约归申请人所有
	created, err := repo.Reservation.GetByID(context.Background(), result.Reservation.ID)
	if err != nil {
		t.Fatalf("读取生成预约失败: %v", err)
	}
	if created.OwnerID != basicActor.ID {
		t.Errorf("预约拥有者应为申请人，实际=%s", created.OwnerID)
	}
	if created.ShareToken == "" {
		t.Error("生成的预约应带分享 token")
	}

	// 申请通过即预约落地，申请人收到预约确认通知
	notifRepo := repo.Notification.(*mockNotificationRepo)
	found := false
	for _, n := range notifRepo.notifications {
		if n.UserID == basicActor.ID && n.Type == model.NotifyReservationConfirmed {
			found = true
		}
	}
	if !found {
		t.Error("申请人应收到预约确认通知")
	}
}

func TestRequestReview_ApproveConflictKeepsPending(t *testing.T) {
	svc, rsvSvc, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	submitted, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	// 提交后、审批前有人占了同一时段
	if _, err := rsvSvc.Create(context.Background(), adminActor, &dto.CreateReservationRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("创建应成功: %v", err)
	}

	_, err = svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{
		Decision: "approve",
	})
	if !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("期望 ErrTimeConflict，实际: %v", err)
	}

	// 审批失败时申请保持 pending，可改期后再批
	stored, err := repo.Request.GetByID(context.Background(), submitted.ID)
	if err != nil {
		t.Fatalf("读取申请失败: %v", err)
	}
	if stored.Status != model.RequestStatusPending {
		t.Errorf("冲突时申请应保持 pending，实际=%s", stored.Status)
	}
}

func TestRequestReview_RejectRequiresNote(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	submitted, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	_, err = svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{
		Decision: "reject",
	})
	if !errors.Is(err, ErrReviewNoteRequired) {
		t.Errorf("无理由驳回应被拒绝，实际: %v", err)
	}

	result, err := svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{
		Decision: "reject", Note: "该时段有保养",
	})
	if err != nil {
		t.Fatalf("带理由驳回应成功: %v", err)
	}
	if result.Request.Status != model.RequestStatusRejected {
		t.Errorf("期望状态=rejected，实际=%s", result.Request.Status)
	}
	if result.Reservation != nil {
		t.Error("驳回不应生成预约")
	}

	// 驳回走审批结果通知，附理由
	notifRepo := repo.Notification.(*mockNotificationRepo)
	found := false
	for _, n := range notifRepo.notifications {
		if n.UserID == basicActor.ID && n.Type == model.NotifyRequestReviewed {
			found = true
		}
	}
	if !found {
		t.Error("申请人应收到驳回通知")
	}
}

func TestRequestReview_TerminalAndPermission(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	submitted, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	// 非管理员不能审批
	instructor := Actor{ID: "i1", Role: model.RoleInstructor, CanReserve: true, CanOverride: true}
	if _, err := svc.Review(context.Background(), instructor, submitted.ID, &dto.ReviewRequestRequest{Decision: "approve"}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("讲师不应能审批，实际: %v", err)
	}

	if _, err := svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{Decision: "approve"}); err != nil {
		t.Fatalf("审批应成功: %v", err)
	}

	// 终态：已处理申请不可再审
	_, err = svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{Decision: "reject", Note: "x"})
	if !errors.Is(err, ErrRequestNotPending) {
		t.Errorf("重复审批应报 ErrRequestNotPending，实际: %v", err)
	}
}

// ── Withdraw 测试 ──

func TestRequestWithdraw(t *testing.T) {
	svc, _, repo := setupTestRequestService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)

	start, end := futureSlot(24, 60)
	submitted, err := svc.Submit(context.Background(), basicActor, &dto.SubmitRequestRequest{
		RoomID: room.RoomID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	// 他人不能撤回
	stranger := Actor{ID: "u9", Role: model.RoleBasic}
	if err := svc.Withdraw(context.Background(), stranger, submitted.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("他人撤回应被拒绝，实际: %v", err)
	}

	if err := svc.Withdraw(context.Background(), basicActor, submitted.ID); err != nil {
		t.Fatalf("本人撤回应成功: %v", err)
	}

	stored, err := repo.Request.GetByID(context.Background(), submitted.ID)
	if err != nil {
		t.Fatalf("读取申请失败: %v", err)
	}
	if stored.Status != model.RequestStatusCancelled {
		t.Errorf("期望状态=cancelled，实际=%s", stored.Status)
	}

	// 终态：撤回后不可再审批
	if _, err := svc.Review(context.Background(), adminActor, submitted.ID, &dto.ReviewRequestRequest{Decision: "approve"}); !errors.Is(err, ErrRequestNotPending) {
		t.Errorf("已撤回申请不可审批，实际: %v", err)
	}
}

// [自证通过] internal/service/request_service_test.go
