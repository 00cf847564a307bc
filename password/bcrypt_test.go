package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestBcrypt(t *testing.T) *Bcrypt {
	t.Helper()
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return hasher
}

func TestBcryptHashAndVerify(t *testing.T) {
	hasher := newTestBcrypt(t)

	hash, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}

	ok, err := hasher.Verify("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed: ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("battery staple", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestBcryptRejectsEmptyAndOverlong(t *testing.T) {
	hasher := newTestBcrypt(t)

	if _, err := hasher.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("expected 72-byte password to hash: %v", err)
	}
}

func TestBcryptVerifyMalformedHash(t *testing.T) {
	hasher := newTestBcrypt(t)
	if _, err := hasher.Verify("password", "not-a-bcrypt-hash"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak := newTestBcrypt(t)
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong, err := NewBcrypt(bcrypt.MinCost + 1)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	needs, err := strong.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needs {
		t.Fatal("expected lower-cost hash to need an upgrade")
	}

	needs, err = weak.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needs {
		t.Fatal("expected same-cost hash not to need an upgrade")
	}
}

func TestNewBcryptRejectsCostOutOfRange(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out-of-range cost to fail")
	}
	if _, err := NewBcrypt(1); err == nil {
		t.Fatal("expected cost below minimum to fail")
	}
}
