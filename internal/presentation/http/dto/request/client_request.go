package request

import "github.com/google/uuid"

// ClientRequest represents a client create or update request
type ClientRequest struct {
	Name          string     `json:"name" binding:"required,max=255"`
	Company       string     `json:"company" binding:"required,max=255"`
	Email         string     `json:"email" binding:"omitempty,email"`
	Phone         string     `json:"phone" binding:"max=50"`
	Address       *string    `json:"address"`
	SalespersonID *uuid.UUID `json:"salesperson_id"`
}
