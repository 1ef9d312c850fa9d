package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"roomio/backend/internal/model"
	"roomio/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[string]*model.User
	idCounter int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.idCounter++
		user.UserID = fmt.Sprintf("user-%d", m.idCounter)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters) ([]model.User, int64, error) {
	var filtered []model.User
	for _, u := range m.users {
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		if filters.Keyword != "" &&
			!strings.Contains(u.Name, filters.Keyword) &&
			!strings.Contains(u.Email, filters.Keyword) {
			continue
		}
		filtered = append(filtered, *u)
	}
	total := int64(len(filtered))
	if filters.Offset >= len(filtered) {
		return nil, total, nil
	}
	end := filters.Offset + filters.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[filters.Offset:end], total, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, u := range m.users {
		result[u.Role]++
	}
	return result, nil
}

// ── Mock PermissionRepository ──

type mockPermissionRepo struct {
	perms map[string]*model.InstructorPermission
}

func newMockPermissionRepo() *mockPermissionRepo {
	return &mockPermissionRepo{perms: make(map[string]*model.InstructorPermission)}
}

func (m *mockPermissionRepo) GetByUserID(_ context.Context, userID string) (*model.InstructorPermission, error) {
	if p, ok := m.perms[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPermissionRepo) Upsert(_ context.Context, perm *model.InstructorPermission) error {
	m.perms[perm.UserID] = perm
	return nil
}

func (m *mockPermissionRepo) Delete(_ context.Context, userID string) error {
	delete(m.perms, userID)
	return nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms     map[string]*model.Room
	idCounter int
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		m.idCounter++
		room.RoomID = fmt.Sprintf("room-%d", m.idCounter)
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Room, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRoomRepo) List(_ context.Context, maxRoleRank int) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if !r.IsActive {
			continue
		}
		if model.RoleRank(r.MinRole) > maxRoleRank {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct {
	reservations map[string]*model.Reservation
	idCounter    int
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{reservations: make(map[string]*model.Reservation)}
}

func (m *mockReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	if reservation.ReservationID == "" {
		m.idCounter++
		reservation.ReservationID = fmt.Sprintf("rsv-%d", m.idCounter)
	}
	reservation.CreatedAt = time.Now()
	m.reservations[reservation.ReservationID] = reservation
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.reservations[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) GetByShareToken(_ context.Context, token string) (*model.Reservation, error) {
	for _, r := range m.reservations {
		if r.ShareToken == token {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) Update(_ context.Context, reservation *model.Reservation) error {
	if _, ok := m.reservations[reservation.ReservationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	reservation.Version++
	m.reservations[reservation.ReservationID] = reservation
	return nil
}

// FindConflict 与 SQL 实现同一口径：半开区间，仅 active，可排除自身
func (m *mockReservationRepo) FindConflict(_ context.Context, roomID string, start, end time.Time, excludeID string) (*model.Reservation, error) {
	for _, r := range m.reservations {
		if r.RoomID != roomID || r.Status != model.ReservationStatusActive {
			continue
		}
		if excludeID != "" && r.ReservationID == excludeID {
			continue
		}
		if r.StartTime.Before(end) && start.Before(r.EndTime) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) ListByOwner(_ context.Context, ownerID string, endedCutoff, cancelCutoff time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.OwnerID != ownerID {
			continue
		}
		if r.Status == model.ReservationStatusCancelled {
			if r.CanceledAt == nil || r.CanceledAt.Before(cancelCutoff) {
				continue
			}
		} else if r.EndTime.Before(endedCutoff) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockReservationRepo) ListByRoomBetween(_ context.Context, roomID string, from, to time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.RoomID != roomID {
			continue
		}
		if r.StartTime.Before(to) && from.Before(r.EndTime) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockReservationRepo) ListStartingBetween(_ context.Context, from, to time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.Status != model.ReservationStatusActive {
			continue
		}
		if !r.StartTime.Before(from) && r.StartTime.Before(to) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReservationRepo) ListAll(_ context.Context) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockReservationRepo) UtilizationByRoom(_ context.Context) ([]repository.RoomUtilization, error) {
	byRoom := make(map[string]*repository.RoomUtilization)
	for _, r := range m.reservations {
		if r.Status != model.ReservationStatusActive {
			continue
		}
		u, ok := byRoom[r.RoomID]
		if !ok {
			name := r.RoomID
			if r.Room != nil {
				name = r.Room.Name
			}
			u = &repository.RoomUtilization{RoomID: r.RoomID, RoomName: name}
			byRoom[r.RoomID] = u
		}
		u.ReservationCount++
		u.TotalHours += r.EndTime.Sub(r.StartTime).Hours()
	}

	var result []repository.RoomUtilization
	for _, u := range byRoom {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TotalHours > result[j].TotalHours })
	return result, nil
}

// ── Mock AttendeeRepository ──

type mockAttendeeRepo struct {
	attendees []model.ReservationAttendee
	idCounter int
}

func newMockAttendeeRepo() *mockAttendeeRepo {
	return &mockAttendeeRepo{}
}

func (m *mockAttendeeRepo) Create(_ context.Context, attendee *model.ReservationAttendee) error {
	if attendee.AttendeeID == "" {
		m.idCounter++
		attendee.AttendeeID = fmt.Sprintf("att-%d", m.idCounter)
	}
	m.attendees = append(m.attendees, *attendee)
	return nil
}

func (m *mockAttendeeRepo) Get(_ context.Context, reservationID, userID string) (*model.ReservationAttendee, error) {
	for i, a := range m.attendees {
		if a.ReservationID == reservationID && a.UserID == userID {
			return &m.attendees[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendeeRepo) Update(_ context.Context, attendee *model.ReservationAttendee) error {
	for i, a := range m.attendees {
		if a.AttendeeID == attendee.AttendeeID {
			m.attendees[i] = *attendee
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockAttendeeRepo) ListByReservation(_ context.Context, reservationID string) ([]model.ReservationAttendee, error) {
	var result []model.ReservationAttendee
	for _, a := range m.attendees {
		if a.ReservationID == reservationID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAttendeeRepo) CountByStatus(_ context.Context, reservationID, status string) (int64, error) {
	var count int64
	for _, a := range m.attendees {
		if a.ReservationID == reservationID && a.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockAttendeeRepo) CountAll(_ context.Context, reservationID string) (int64, error) {
	var count int64
	for _, a := range m.attendees {
		if a.ReservationID == reservationID {
			count++
		}
	}
	return count, nil
}

// ── Mock RequestRepository ──

type mockRequestRepo struct {
	requests  map[string]*model.ReservationRequest
	idCounter int
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.ReservationRequest)}
}

func (m *mockRequestRepo) Create(_ context.Context, request *model.ReservationRequest) error {
	if request.RequestID == "" {
		m.idCounter++
		request.RequestID = fmt.Sprintf("req-%d", m.idCounter)
	}
	request.CreatedAt = time.Now()
	m.requests[request.RequestID] = request
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.ReservationRequest, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ReservationRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRequestRepo) Update(_ context.Context, request *model.ReservationRequest) error {
	if _, ok := m.requests[request.RequestID]; !ok {
		return gorm.ErrRecordNotFound
	}
	request.Version++
	m.requests[request.RequestID] = request
	return nil
}

func (m *mockRequestRepo) ListByRequester(_ context.Context, requesterID string, offset, limit int) ([]model.ReservationRequest, int64, error) {
	var filtered []model.ReservationRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			filtered = append(filtered, *r)
		}
	}
	return paginateRequests(filtered, offset, limit)
}

func (m *mockRequestRepo) ListByStatus(_ context.Context, status string, offset, limit int) ([]model.ReservationRequest, int64, error) {
	var filtered []model.ReservationRequest
	for _, r := range m.requests {
		if r.Status == status {
			filtered = append(filtered, *r)
		}
	}
	return paginateRequests(filtered, offset, limit)
}

func paginateRequests(filtered []model.ReservationRequest, offset, limit int) ([]model.ReservationRequest, int64, error) {
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	idCounter     int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if notification.NotificationID == "" {
		m.idCounter++
		notification.NotificationID = fmt.Sprintf("ntf-%d", m.idCounter)
	}
	notification.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	for i, n := range m.notifications {
		if n.NotificationID == id {
			return &m.notifications[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var filtered []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		filtered = append(filtered, n)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	for i, n := range m.notifications {
		if n.NotificationID == id && n.UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for i, n := range m.notifications {
		if n.UserID == userID {
			m.notifications[i].IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id, userID string) error {
	for i, n := range m.notifications {
		if n.NotificationID == id && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ExistsByReservationAndType(_ context.Context, reservationID, notifyType string) (bool, error) {
	for _, n := range m.notifications {
		if n.ReservationID != nil && *n.ReservationID == reservationID && n.Type == notifyType {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock PreferenceRepository ──

type mockPreferenceRepo struct {
	prefs map[string]*model.NotificationPreference
}

func newMockPreferenceRepo() *mockPreferenceRepo {
	return &mockPreferenceRepo{prefs: make(map[string]*model.NotificationPreference)}
}

func (m *mockPreferenceRepo) GetByUserID(_ context.Context, userID string) (*model.NotificationPreference, error) {
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPreferenceRepo) Upsert(_ context.Context, pref *model.NotificationPreference) error {
	m.prefs[pref.UserID] = pref
	return nil
}

// ── 聚合构造 ──

// newMockRepository 返回全 mock 仓储聚合（db 为空，BeginTx 返回 nil 事务）
func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:         newMockUserRepo(),
		Permission:   newMockPermissionRepo(),
		Room:         newMockRoomRepo(),
		Reservation:  newMockReservationRepo(),
		Attendee:     newMockAttendeeRepo(),
		Request:      newMockRequestRepo(),
		Notification: newMockNotificationRepo(),
		Preference:   newMockPreferenceRepo(),
	}
}

// [自证通过] internal/service/mock_repos_test.go
