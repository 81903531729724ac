package service

import (
	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/enum"
)

// Actor is the authenticated user a service call is made on behalf of.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     enum.Role
	Country  string
}

// ownerScope returns nil for roles that see every record, otherwise the
// actor's own ID.
func (a Actor) ownerScope() *uuid.UUID {
	if a.Role.SeesAll() {
		return nil
	}
	id := a.UserID
	return &id
}

// canAccess reports whether the actor may read a record owned by ownerID.
func (a Actor) canAccess(ownerID uuid.UUID) bool {
	return a.Role.SeesAll() || a.UserID == ownerID
}
