package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPasswordBytes bounds the input accepted by Hash and Verify when no
// explicit limit is configured.
const DefaultMaxPasswordBytes = 1024

var (
	// ErrEmptyPassword is returned by Hash for a zero-length input.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when the input exceeds the configured byte limit.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrMalformedHash is returned by Verify when the stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Algorithm selects a Hasher implementation.
type Algorithm string

const (
	// AlgorithmBcrypt hashes with bcrypt.
	AlgorithmBcrypt Algorithm = "bcrypt"
	// AlgorithmArgon2id hashes with argon2id and PHC encoding.
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Hasher turns plaintext passwords into storable hashes and checks them later.
//
// Implementations are safe for concurrent use.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
}

// Upgrader is implemented by hashers that can tell when a stored hash was
// made with weaker parameters than they are configured for.
type Upgrader interface {
	NeedsUpgrade(encodedHash string) (bool, error)
}

// Options bundles the tunables of every supported algorithm so a single
// configuration block can select and parameterize a Hasher.
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Config
}

// New returns the Hasher selected by opts.Algorithm. An empty algorithm means bcrypt.
func New(opts Options) (Hasher, error) {
	switch Algorithm(strings.ToLower(string(opts.Algorithm))) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost)
	case AlgorithmArgon2id:
		return NewArgon2(opts.Argon2)
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", opts.Algorithm)
	}
}

func checkLength(password string, maxBytes int) error {
	if len(password) > maxBytes {
		return ErrPasswordTooLong
	}
	return nil
}
