package request

import "github.com/sangkips/quotation-api/internal/domain/enum"

// CreateUserRequest represents an account provisioning request
type CreateUserRequest struct {
	Username string    `json:"username" binding:"required,min=3,max=100"`
	Email    string    `json:"email" binding:"required,email"`
	FullName string    `json:"full_name" binding:"max=255"`
	Password string    `json:"password" binding:"required,min=8"`
	Role     enum.Role `json:"role" binding:"required"`
	Country  string    `json:"country" binding:"max=100"`
}

// UpdateUserRequest represents a partial account update
type UpdateUserRequest struct {
	FullName *string    `json:"full_name" binding:"omitempty,max=255"`
	Email    *string    `json:"email" binding:"omitempty,email"`
	Role     *enum.Role `json:"role"`
	Country  *string    `json:"country" binding:"omitempty,max=100"`
	IsActive *bool      `json:"is_active"`
	Password *string    `json:"password" binding:"omitempty,min=8"`
}

// UserFilterRequest represents user list filters
type UserFilterRequest struct {
	Search  string `form:"search"`
	Role    string `form:"role"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
