package domain

import "github.com/google/uuid"

type Role string

const (
	RoleAnonymous Role = ""
	RoleMember    Role = "member"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
)

// Actor is the authenticated caller as supplied by the identity provider.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func Anonymous() Actor {
	return Actor{Role: RoleAnonymous}
}

func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

func (a Actor) IsMember() bool {
	return a.Role == RoleMember && a.ID != uuid.Nil
}
