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
)

// ClientService handles client contacts. Salespeople only see their own
// clients.
type ClientService struct {
	clientRepo repository.ClientRepository
	userRepo   repository.UserRepository
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, userRepo repository.UserRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo, userRepo: userRepo}
}

// ClientInput represents the input for creating or updating a client
type ClientInput struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Address *string
	// SalespersonID reassigns ownership. Only managers and admins may set it.
	SalespersonID *uuid.UUID
}

func (in *ClientInput) validate() error {
	var fields []apperror.FieldError
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(in.Company) == "" {
		fields = append(fields, apperror.FieldError{Field: "company", Message: "Company is required"})
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			fields = append(fields, apperror.FieldError{Field: "email", Message: "Email is not valid"})
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	return nil
}

// CreateClient creates a client owned by the actor, or by the given
// salesperson when a manager creates it
func (s *ClientService) CreateClient(ctx context.Context, actor Actor, input *ClientInput) (*entity.Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	owner, err := s.resolveOwner(ctx, actor, input.SalespersonID)
	if err != nil {
		return nil, err
	}

	client := &entity.Client{
		SalespersonID: owner,
		Name:          strings.TrimSpace(input.Name),
		Company:       strings.TrimSpace(input.Company),
		Email:         strings.TrimSpace(input.Email),
		Phone:         strings.TrimSpace(input.Phone),
		Address:       input.Address,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// GetClient retrieves a client the actor may see
func (s *ClientService) GetClient(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil || !actor.canAccess(client.SalespersonID) {
		return nil, apperror.NewNotFoundError("Client")
	}
	return client, nil
}

// UpdateClient updates a client the actor may see
func (s *ClientService) UpdateClient(ctx context.Context, actor Actor, id uuid.UUID, input *ClientInput) (*entity.Client, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	client, err := s.GetClient(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.SalespersonID != nil {
		owner, err := s.resolveOwner(ctx, actor, input.SalespersonID)
		if err != nil {
			return nil, err
		}
		client.SalespersonID = owner
	}

	client.Name = strings.TrimSpace(input.Name)
	client.Company = strings.TrimSpace(input.Company)
	client.Email = strings.TrimSpace(input.Email)
	client.Phone = strings.TrimSpace(input.Phone)
	client.Address = input.Address

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// DeleteClient deletes a client the actor may see
func (s *ClientService) DeleteClient(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.GetClient(ctx, actor, id); err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, id)
}

// ListClients returns a page of the clients the actor may see
func (s *ClientService) ListClients(ctx context.Context, actor Actor, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Client], error) {
	params.Validate()
	clients, total, err := s.clientRepo.List(ctx, &repository.ClientFilterParams{
		Pagination:    params,
		Search:        search,
		SalespersonID: actor.ownerScope(),
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(clients, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

func (s *ClientService) resolveOwner(ctx context.Context, actor Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil {
		return actor.UserID, nil
	}
	if *requested == actor.UserID && actor.Role == enum.RoleSalesperson {
		return actor.UserID, nil
	}
	if !actor.Role.SeesAll() {
		return uuid.Nil, apperror.NewForbiddenError("Only managers can assign clients to another salesperson")
	}
	owner, err := s.userRepo.GetByID(ctx, *requested)
	if err != nil {
		return uuid.Nil, err
	}
	if owner == nil || owner.Role != enum.RoleSalesperson {
		return uuid.Nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "salesperson_id", Message: "Salesperson not found"},
		})
	}
	return owner.ID, nil
}
