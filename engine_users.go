package goGate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/MrEthical07/goGate/password"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Register validates req, hashes the password, and stores a new user under a
// random UUID.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if e == nil || e.passwordHash == nil {
		return User{}, ErrEngineNotReady
	}
	if e.userStore == nil {
		return User{}, ErrUserStoreUnavailable
	}

	if err := e.validateRegistration(req); err != nil {
		return User{}, err
	}

	if _, err := e.userStore.GetUserByUsername(ctx, req.Username); err == nil {
		e.metricInc(MetricUserDuplicate)
		e.emitAudit(ctx, auditEventUserDuplicate, false, "", ErrUserExists, func() map[string]string {
			return map[string]string{"username": req.Username}
		})
		return User{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	rec := UserRecord{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Username:  req.Username,
		CreatedAt: e.now().UTC(),
	}
	if err := e.SetPassword(&rec, req.Password); err != nil {
		return User{}, err
	}

	created, err := e.userStore.CreateUser(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			e.metricInc(MetricUserDuplicate)
			e.emitAudit(ctx, auditEventUserDuplicate, false, "", ErrUserExists, func() map[string]string {
				return map[string]string{"username": req.Username}
			})
			return User{}, ErrUserExists
		}
		e.logger.Warn("user store create failed", zap.Error(err))
		return User{}, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	e.metricInc(MetricUserRegistered)
	e.emitAudit(ctx, auditEventUserRegistered, true, created.ID, nil, nil)

	return created.View(), nil
}

func (e *Engine) validateRegistration(req RegisterRequest) error {
	acc := e.config.Account

	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(req.Name) > acc.MaxNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", ErrUserInvalid, acc.MaxNameLength)
	}
	if req.Username == "" || utf8.RuneCountInString(req.Username) > acc.MaxUsernameLength {
		return fmt.Errorf("%w: username must be 1..%d characters", ErrUserInvalid, acc.MaxUsernameLength)
	}
	if utf8.RuneCountInString(req.Password) < acc.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrPasswordPolicy, acc.MinPasswordLength)
	}
	return nil
}

// Login checks username and password and issues an access token for the
// user's ID. An unknown username and a wrong password both return
// ErrInvalidCredentials.
//
// An unknown username still costs one hash comparison, against a fixed
// dummy hash, so response time does not reveal which usernames exist.
func (e *Engine) Login(ctx context.Context, username, pw string) (string, error) {
	if e == nil || e.passwordHash == nil {
		return "", ErrEngineNotReady
	}
	if e.userStore == nil {
		return "", ErrUserStoreUnavailable
	}

	rec, err := e.userStore.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.logger.Warn("user store lookup failed", zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
		}
		e.VerifyPassword(pw, e.dummy.hash(e.passwordHash))
		e.loginFailed(ctx, "", username)
		return "", ErrInvalidCredentials
	}

	if !e.VerifyPassword(pw, rec.PasswordHash) {
		e.loginFailed(ctx, rec.ID, username)
		return "", ErrInvalidCredentials
	}
	e.upgradeHash(ctx, rec, pw)

	token, err := e.IssueToken(rec.ID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, rec.ID, nil, nil)

	return token, nil
}

func (e *Engine) loginFailed(ctx context.Context, userID, username string) {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"username": username}
	})
}

// upgradeHash rehashes pw under the current parameters when rec's hash is
// weaker and the store can persist it. Failures are logged and never fail
// the login.
func (e *Engine) upgradeHash(ctx context.Context, rec UserRecord, pw string) {
	upgrader, ok := e.passwordHash.(password.Upgrader)
	if !ok {
		return
	}
	updater, ok := e.userStore.(PasswordHashUpdater)
	if !ok {
		return
	}

	stale, err := upgrader.NeedsUpgrade(rec.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := e.passwordHash.Hash(pw)
	if err != nil {
		e.logger.Warn("password rehash failed", zap.String("user_id", rec.ID), zap.Error(err))
		return
	}
	if err := updater.UpdatePasswordHash(ctx, rec.ID, hash); err != nil {
		e.logger.Warn("password hash update failed", zap.String("user_id", rec.ID), zap.Error(err))
		return
	}
	e.logger.Debug("password hash upgraded", zap.String("user_id", rec.ID))
}

// dummyHash is the hash compared against when a login names no known user.
// It is computed on first use with the engine's own hasher.
type dummyHash struct {
	once  sync.Once
	value string
}

func (d *dummyHash) hash(h password.Hasher) string {
	d.once.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		d.value, _ = h.Hash(hex.EncodeToString(buf))
	})
	return d.value
}

// GetUser returns the public view of the user with id.
func (e *Engine) GetUser(ctx context.Context, id string) (User, error) {
	if e == nil {
		return User{}, ErrEngineNotReady
	}
	if e.userStore == nil {
		return User{}, ErrUserStoreUnavailable
	}
	rec, err := e.userStore.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	return rec.View(), nil
}

// SetPassword hashes raw into rec.PasswordHash. The plaintext is never stored.
func (e *Engine) SetPassword(rec *UserRecord, raw string) error {
	if e == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if rec == nil {
		return errors.New("nil user record")
	}

	hash, err := e.passwordHash.Hash(raw)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		}
		return err
	}
	rec.PasswordHash = hash
	return nil
}

// VerifyPassword reports whether raw matches hash. A malformed hash never matches.
func (e *Engine) VerifyPassword(raw, hash string) bool {
	if e == nil || e.passwordHash == nil || hash == "" {
		return false
	}
	ok, err := e.passwordHash.Verify(raw, hash)
	if err != nil {
		e.logger.Debug("password verify failed", zap.Error(err))
		return false
	}
	return ok
}
