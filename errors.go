package goGate

import (
	"errors"

	"github.com/MrEthical07/goGate/internal/gate"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/store"
)

var (
	// ErrInvalidConfig wraps every configuration failure reported by Config.Validate and Builder.Build.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrEngineNotReady is returned by Engine methods on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrUnauthenticated is the only authentication failure callers see.
	ErrUnauthenticated = gate.ErrUnauthenticated
	// ErrTokenExpired is returned by DecodeToken for a correctly signed, expired token.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenInvalid is returned by DecodeToken for any other token failure.
	ErrTokenInvalid = jwt.ErrInvalid
	// ErrStoreUnavailable is returned when the rate-limit store cannot be reached.
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by UserStore lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("username already registered")
	// ErrUserInvalid is returned by Register for a missing or oversized name or username.
	ErrUserInvalid = errors.New("invalid user")
	// ErrPasswordPolicy is returned by Register when the password is too short or too long.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrUserStoreUnavailable is returned when the user store fails for reasons other than a miss.
	ErrUserStoreUnavailable = errors.New("user store unavailable")
)
