package auth

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the domain entity. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NewUser carries the fields of a user that has not been persisted yet.
// Password is plaintext and is hashed by CredentialStore.Create.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// PasswordChange tells CredentialStore.Save whether the password was set
// since the user was loaded. Plaintext is only read when Changed is true.
type PasswordChange struct {
	Changed   bool
	Plaintext string
}

var NoPasswordChange = PasswordChange{}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *User
	Token string
}
