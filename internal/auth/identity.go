package auth

import (
	"anoa.com/jobapp/internal/entity"
	"github.com/google/uuid"
)

// IdentityKey is the gin context key holding the authenticated *Identity.
const IdentityKey = "identity"

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     entity.Role
}

func NewIdentity(user *entity.User) *Identity {
	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

func (i *Identity) HasRole(role entity.Role) bool {
	return i != nil && i.Role == role
}
