package model

import "time"

// Role names stored in the users table and carried in the JWT role claim.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The reservation engine itself never inspects users; this type
// exists for the auth surface that sits in front of it.  Handlers define
// separate response types, so no json tags are needed here.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Username     – unique short name shown on the seat grid.
//  FullName     – display name.
//  PasswordHash – bcrypt hashed password.
//  Role         – MEMBER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	Username     string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
