package goGate

import (
	"context"
	"time"

	"github.com/MrEthical07/goGate/internal/rate"
)

// Decision is the outcome of a rate-limit check. A rejection carries the time
// until the caller's window ends.
type Decision = rate.Decision

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserRecord is a stored user. PasswordHash is only ever written through
// Engine.SetPassword and read by Engine.VerifyPassword.
type UserRecord struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// User is the public view of a UserRecord.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// View strips the credential fields from r.
func (r UserRecord) View() User {
	return User{ID: r.ID, Name: r.Name, Username: r.Username}
}

// RegisterRequest is the input to Engine.Register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserStore persists users. Implementations must be safe for concurrent use.
//
// CreateUser returns ErrUserExists when the username is taken. Lookups return
// ErrUserNotFound on a miss. Any other error is treated as unavailability.
type UserStore interface {
	CreateUser(ctx context.Context, user UserRecord) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
}

// PasswordHashUpdater is an optional UserStore extension. When the store
// implements it, Login replaces hashes made with weaker parameters than the
// current configuration.
type PasswordHashUpdater interface {
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
