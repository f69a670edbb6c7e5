package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/md5_crypt"
	_ "github.com/GehirnInc/crypt/sha256_crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned for hash formats no verifier understands.
var ErrUnsupportedHash = errors.New("unsupported password hash")

// Verifier decides whether a typed secret is the user's credential.
type Verifier interface {
	Verify(secret []byte) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(secret []byte) bool

func (f VerifierFunc) Verify(secret []byte) bool { return f(secret) }

// Deny rejects every secret. It stands in when no credential could be
// loaded and the locker runs with debugging enabled.
var Deny Verifier = VerifierFunc(func([]byte) bool { return false })

type bcryptVerifier struct {
	hash []byte
}

func (v bcryptVerifier) Verify(secret []byte) bool {
	return bcrypt.CompareHashAndPassword(v.hash, secret) == nil
}

type cryptVerifier struct {
	hash    string
	crypter crypt.Crypter
}

func (v cryptVerifier) Verify(secret []byte) bool {
	return v.crypter.Verify(v.hash, secret) == nil
}

// NewHashVerifier returns a verifier for a modular crypt hash. bcrypt
// ($2a$, $2b$, $2y$) and crypt(3) MD5, SHA-256 and SHA-512 ($1$, $5$, $6$)
// are understood.
func NewHashVerifier(hash string) (Verifier, error) {
	hash = strings.TrimSpace(hash)
	switch {
	case hash == "":
		return nil, ErrNoPassword
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("bcrypt hash: %w", err)
		}
		return bcryptVerifier{hash: []byte(hash)}, nil
	case crypt.IsHashSupported(hash):
		return cryptVerifier{hash: hash, crypter: crypt.NewFromHash(hash)}, nil
	}
	prefix := hash
	if i := strings.IndexByte(hash[1:], '$'); hash[0] == '$' && i >= 0 {
		prefix = hash[:i+2]
	} else if len(prefix) > 4 {
		prefix = prefix[:4] + "..."
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedHash, prefix)
}

// GenerateHash returns a bcrypt hash of password. A cost of 0 selects
// bcrypt.DefaultCost.
func GenerateHash(password []byte, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateCryptHash returns a crypt(3) SHA-512 hash of password. An empty
// salt picks a random one.
func GenerateCryptHash(password []byte, salt string) (string, error) {
	var s []byte
	if salt != "" {
		if strings.ContainsAny(salt, "$:\n") {
			return "", fmt.Errorf("salt %q contains reserved characters", salt)
		}
		s = []byte("$6$" + salt)
	}
	return crypt.SHA512.New().Generate(password, s)
}
