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

func setupTestAttendeeService() (AttendeeService, *repository.Repository) {
	cfg := testConfig()
	repo := newMockRepository()
	logger := zap.NewNop()
	notifier := NewNotificationService(cfg, repo, nil, logger)
	svc := NewAttendeeService(cfg, repo, notifier, logger)
	return svc, repo
}

func seedUser(t *testing.T, repo *repository.Repository, id, name, role string) *model.User {
	t.Helper()
	user := &model.User{UserID: id, Name: name, Email: id + "@example.com", Role: role, IsActive: true}
	if err := repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}
	return user
}

func seedActiveReservation(t *testing.T, repo *repository.Repository, roomID, ownerID, token string) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		RoomID:     roomID,
		OwnerID:    ownerID,
		StartTime:  time.Now().Add(24 * time.Hour),
		EndTime:    time.Now().Add(25 * time.Hour),
		Status:     model.ReservationStatusActive,
		ShareToken: token,
	}
	if err := repo.Reservation.Create(context.Background(), r); err != nil {
		t.Fatalf("准备预约失败: %v", err)
	}
	return r
}

// ── Invite 测试 ──

func TestAttendeeInvite_Idempotent(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, adminActor.ID, "tok-1")

	detail, err := svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("邀请应成功: %v", err)
	}
	if detail.InvitedCount != 1 {
		t.Errorf("期望邀请人数=1，实际=%d", detail.InvitedCount)
	}

	// 重复邀请同一人：不报错、不重复建行、不重发通知
	detail, err = svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("重复邀请应幂等成功: %v", err)
	}
	if detail.InvitedCount != 1 {
		t.Errorf("重复邀请后人数仍应为1，实际=%d", detail.InvitedCount)
	}

	notifRepo := repo.Notification.(*mockNotificationRepo)
	inviteCount := 0
	for _, n := range notifRepo.notifications {
		if n.Type == model.NotifyInvite {
			inviteCount++
		}
	}
	if inviteCount != 1 {
		t.Errorf("邀请通知应只发一次，实际=%d", inviteCount)
	}
}

func TestAttendeeInvite_OwnerSkippedAndUnknownRejected(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, adminActor.ID, "tok-1")

	// 拥有者是隐含参与人，邀请名单里出现自己直接跳过
	detail, err := svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{adminActor.ID},
	})
	if err != nil {
		t.Fatalf("邀请应成功: %v", err)
	}
	if detail.InvitedCount != 0 {
		t.Errorf("拥有者不应建参与行，实际=%d", detail.InvitedCount)
	}

	// 不存在的用户整批拒绝
	_, err = svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"ghost"},
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}

	// 混合名单 [有效, 未知]：整批失败后不得残留任何参与行或邀请通知
	_, err = svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"u2", "ghost"},
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("期望 ErrUserNotFound，实际: %v", err)
	}
	count, _ := repo.Attendee.CountAll(context.Background(), r.ReservationID)
	if count != 0 {
		t.Errorf("批量失败后不应残留参与行，实际=%d", count)
	}
	notifRepo := repo.Notification.(*mockNotificationRepo)
	for _, n := range notifRepo.notifications {
		if n.Type == model.NotifyInvite {
			t.Error("批量失败后不应发出邀请通知")
		}
	}
}

func TestAttendeeInvite_OnlyOwnerOrPrivileged(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, "owner-1", "tok-1")

	stranger := Actor{ID: "u9", Role: model.RoleBasic}
	_, err := svc.Invite(context.Background(), stranger, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"u2"},
	})
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("他人不应能邀请，实际: %v", err)
	}
}

// ── Respond 测试 ──

func TestAttendeeRespond(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, adminActor.ID, "tok-1")

	if _, err := svc.Invite(context.Background(), adminActor, r.ReservationID, &dto.InviteRequest{
		UserIDs: []string{"u2"},
	}); err != nil {
		t.Fatalf("邀请应成功: %v", err)
	}

	invited := Actor{ID: "u2", Role: model.RoleBasic}
	if err := svc.Respond(context.Background(), invited, r.ReservationID, true); err != nil {
		t.Fatalf("确认应成功: %v", err)
	}

	attendee, err := repo.Attendee.Get(context.Background(), r.ReservationID, "u2")
	if err != nil {
		t.Fatalf("读取参与行失败: %v", err)
	}
	if attendee.Status != model.AttendeeStatusConfirmed {
		t.Errorf("期望状态=confirmed，实际=%s", attendee.Status)
	}
	if attendee.RespondedAt == nil {
		t.Error("响应后应记录响应时间")
	}

	// 确认后拥有者收到通知
	notifRepo := repo.Notification.(*mockNotificationRepo)
	found := false
	for _, n := range notifRepo.notifications {
		if n.UserID == adminActor.ID && n.Type == model.NotifyAttendeeJoined {
			found = true
		}
	}
	if !found {
		t.Error("确认参加应通知拥有者")
	}

	// 未被邀请的人不能响应
	stranger := Actor{ID: "u9", Role: model.RoleBasic}
	if err := svc.Respond(context.Background(), stranger, r.ReservationID, true); !errors.Is(err, ErrNotInvited) {
		t.Errorf("期望 ErrNotInvited，实际: %v", err)
	}
}

// ── ResolveShareToken 测试 ──

func TestShareToken_AutoConfirmIdempotent(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "owner-1", "拥有者", model.RoleInstructor)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, "owner-1", "tok-share")

	// 首次访问：自动确认参加
	view, err := svc.ResolveShareToken(context.Background(), "tok-share", "u2")
	if err != nil {
		t.Fatalf("分享访问应成功: %v", err)
	}
	if !view.Joined {
		t.Error("登录用户首次访问应自动确认参加")
	}

	attendee, err := repo.Attendee.Get(context.Background(), r.ReservationID, "u2")
	if err != nil {
		t.Fatalf("读取参与行失败: %v", err)
	}
	if attendee.Status != model.AttendeeStatusConfirmed {
		t.Errorf("期望状态=confirmed，实际=%s", attendee.Status)
	}

	// 重复访问：幂等，不重复建行、不重发通知
	view, err = svc.ResolveShareToken(context.Background(), "tok-share", "u2")
	if err != nil {
		t.Fatalf("重复访问应成功: %v", err)
	}
	if !view.Joined {
		t.Error("重复访问 joined 仍应为 true")
	}
	count, _ := repo.Attendee.CountAll(context.Background(), r.ReservationID)
	if count != 1 {
		t.Errorf("重复访问不应重复建行，实际=%d", count)
	}

	notifRepo := repo.Notification.(*mockNotificationRepo)
	joinedCount := 0
	for _, n := range notifRepo.notifications {
		if n.Type == model.NotifyAttendeeJoined {
			joinedCount++
		}
	}
	if joinedCount != 1 {
		t.Errorf("加入通知应只发一次，实际=%d", joinedCount)
	}
}

func TestShareToken_ReadOnlyViews(t *testing.T) {
	svc, repo := setupTestAttendeeService()
	room := seedRoom(t, repo, "会议室A", model.RoleBasic)
	seedUser(t, repo, "u2", "用户二", model.RoleBasic)
	r := seedActiveReservation(t, repo, room.RoomID, "owner-1", "tok-share")

	// 匿名访问：只读，不加入
	view, err := svc.ResolveShareToken(context.Background(), "tok-share", "")
	if err != nil {
		t.Fatalf("匿名访问应成功: %v", err)
	}
	if view.Joined {
		t.Error("匿名访问不应加入")
	}

	// 拥有者访问自己的链接：只读
	view, err = svc.ResolveShareToken(context.Background(), "tok-share", "owner-1")
	if err != nil {
		t.Fatalf("拥有者访问应成功: %v", err)
	}
	if view.Joined {
		t.Error("拥有者访问不应建参与行")
	}

	// 已取消的预约：只读视图
	r.Status = model.ReservationStatusCancelled
	if err := repo.Reservation.Update(context.Background(), r); err != nil {
		t.Fatalf("更新预约失败: %v", err)
	}
	view, err = svc.ResolveShareToken(context.Background(), "tok-share", "u2")
	if err != nil {
		t.Fatalf("已取消预约的分享访问应成功: %v", err)
	}
	if !view.Cancelled || view.Joined {
		t.Errorf("已取消预约应为只读视图: cancelled=%v joined=%v", view.Cancelled, view.Joined)
	}

	// 已结束的预约：只读视图
	ended := &model.Reservation{
		RoomID: room.RoomID, OwnerID: "owner-1",
		StartTime: time.Now().Add(-2 * time.Hour), EndTime: time.Now().Add(-time.Hour),
		Status: model.ReservationStatusActive, ShareToken: "tok-ended",
	}
	if err := repo.Reservation.Create(context.Background(), ended); err != nil {
		t.Fatalf("准备预约失败: %v", err)
	}
	view, err = svc.ResolveShareToken(context.Background(), "tok-ended", "u2")
	if err != nil {
		t.Fatalf("已结束预约的分享访问应成功: %v", err)
	}
	if !view.Ended || view.Joined {
		t.Errorf("已结束预约应为只读视图: ended=%v joined=%v", view.Ended, view.Joined)
	}

	// 无效 token
	if _, err := svc.ResolveShareToken(context.Background(), "no-such-token", "u2"); !errors.Is(err, ErrShareTokenNotFound) {
		t.Errorf("期望 ErrShareTokenNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/attendee_service_test.go
