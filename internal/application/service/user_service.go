package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/internal/domain/repository"
	"github.com/sangkips/quotation-api/pkg/apperror"
	"github.com/sangkips/quotation-api/pkg/pagination"
	"github.com/sangkips/quotation-api/pkg/utils"
)

// UserService handles staff account management. Every operation requires an
// admin actor.
type UserService struct {
	userRepo  repository.UserRepository
	auditRepo repository.LoginAuditRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, auditRepo repository.LoginAuditRepository) *UserService {
	return &UserService{userRepo: userRepo, auditRepo: auditRepo}
}

// CreateUserInput represents the input for creating a user
type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     enum.Role
	Country  string
}

// CreateUser provisions a new account
func (s *UserService) CreateUser(ctx context.Context, actor Actor, input *CreateUserInput) (*entity.User, error) {
	if !actor.Role.CanManageUsers() {
		return nil, apperror.ErrForbidden
	}

	var fields []apperror.FieldError
	if strings.TrimSpace(input.Username) == "" {
		fields = append(fields, apperror.FieldError{Field: "username", Message: "Username is required"})
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(input.Password) < minPasswordLength {
		fields = append(fields, apperror.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !input.Role.IsValid() {
		fields = append(fields, apperror.FieldError{Field: "role", Message: "Role must be admin, sales_manager or salesperson"})
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError(fields)
	}

	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Username already taken")
	}
	existing, err = s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = entity.GlobalCountry
	}

	user := &entity.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
		FullName: strings.TrimSpace(input.FullName),
		Password: hashed,
		Role:     input.Role,
		Country:  country,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsersInput represents the input for listing users
type ListUsersInput struct {
	Page    int
	PerPage int
	Search  string
	Role    *enum.Role
}

// ListUsers returns a page of users
func (s *UserService) ListUsers(ctx context.Context, actor Actor, input *ListUsersInput) (*pagination.PaginatedResult[entity.User], error) {
	if !actor.Role.CanManageUsers() {
		return nil, apperror.ErrForbidden
	}

	params := &pagination.PaginationParams{Page: input.Page, PerPage: input.PerPage}
	params.Validate()

	users, total, err := s.userRepo.List(ctx, &repository.UserFilterParams{
		Pagination: params,
		Search:     input.Search,
		Role:       input.Role,
	})
	if err != nil {
		return nil, err
	}

	return pagination.NewPaginatedResult(users, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, actor Actor, userID uuid.UUID) (*entity.User, error) {
	if !actor.Role.CanManageUsers() && actor.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateUserInput carries optional changes. Nil fields are left alone.
type UpdateUserInput struct {
	FullName *string
	Email    *string
	Role     *enum.Role
	Country  *string
	IsActive *bool
	Password *string
}

// UpdateUser changes an account's profile, role, activation or password
func (s *UserService) UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, input *UpdateUserInput) (*entity.User, error) {
	user, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanManageUsers() {
		return nil, apperror.ErrForbidden
	}

	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "role", Message: "Unknown role"}})
		}
		if actor.UserID == userID && *input.Role != enum.RoleAdmin {
			return nil, apperror.NewBadRequestError("You cannot remove your own admin role")
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		if actor.UserID == userID && !*input.IsActive {
			return nil, apperror.NewBadRequestError("You cannot deactivate your own account")
		}
		user.IsActive = *input.IsActive
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Country != nil {
		user.Country = strings.TrimSpace(*input.Country)
	}
	if input.Email != nil && *input.Email != user.Email {
		if _, err := mail.ParseAddress(*input.Email); err != nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "email", Message: "A valid email is required"}})
		}
		existing, err := s.userRepo.GetByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != user.ID {
			return nil, apperror.NewConflictError("Email already registered")
		}
		user.Email = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "password", Message: "Password must be at least 8 characters"}})
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if !actor.Role.CanManageUsers() {
		return apperror.ErrForbidden
	}
	if actor.UserID == userID {
		return apperror.NewBadRequestError("You cannot delete your own account")
	}
	if _, err := s.GetUser(ctx, actor, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

// LoginHistory returns the most recent sign-ins of a user
func (s *UserService) LoginHistory(ctx context.Context, actor Actor, userID uuid.UUID, limit int) ([]entity.LoginAudit, error) {
	if _, err := s.GetUser(ctx, actor, userID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.auditRepo.ListByUser(ctx, userID, limit)
}
