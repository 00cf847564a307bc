package gate

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goGate/jwt"
)

// ErrUnauthenticated is the single failure Resolve reports, whatever the cause.
var ErrUnauthenticated = errors.New("unauthenticated")

// Decoder verifies a token and returns its claims.
type Decoder interface {
	Decode(token string) (*jwt.Claims, error)
}

// FailureFunc observes the real cause of a rejected token. It must not block.
type FailureFunc func(cause error)

// Gate turns a bearer token into a verified identity.
type Gate struct {
	decoder   Decoder
	onFailure FailureFunc
}

// New returns a Gate over decoder. onFailure may be nil.
func New(decoder Decoder, onFailure FailureFunc) *Gate {
	return &Gate{decoder: decoder, onFailure: onFailure}
}

// Resolve returns the subject of token or ErrUnauthenticated. Expired,
// forged, and malformed tokens are indistinguishable to the caller; the
// cause reaches only the FailureFunc.
func (g *Gate) Resolve(token string) (string, error) {
	if g == nil || g.decoder == nil {
		return "", ErrUnauthenticated
	}
	if token == "" {
		g.fail(jwt.ErrInvalid)
		return "", ErrUnauthenticated
	}

	claims, err := g.decoder.Decode(token)
	if err != nil {
		g.fail(err)
		return "", ErrUnauthenticated
	}
	if claims == nil || claims.Subject == "" {
		g.fail(jwt.ErrInvalid)
		return "", ErrUnauthenticated
	}

	return claims.Subject, nil
}

func (g *Gate) fail(cause error) {
	if g.onFailure != nil {
		g.onFailure(cause)
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme match is case-insensitive.
func BearerToken(header string) (string, bool) {
	const scheme = "bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}

	token := strings.TrimSpace(header[len(scheme):])
	if token == "" {
		return "", false
	}
	return token, true
}
