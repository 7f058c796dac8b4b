package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies knowledge-factor secrets.
type Hasher interface {
	// Name returns the identifier of this hasher (as used in config).
	Name() string

	// Hash derives the stored form of a secret.
	Hash(secret string) ([]byte, error)

	// Verify checks a candidate against a stored hash without leaking
	// the match position through timing.
	Verify(stored []byte, candidate string) bool

	// Decode parses the config representation of a pre-hashed secret.
	Decode(encoded string) ([]byte, error)
}

// SHA256Hasher verifies secrets against unsalted SHA-256 digests.
// It keeps stored hashes compatible with older deployments; prefer
// BcryptHasher for new ones.
type SHA256Hasher struct{}

func (SHA256Hasher) Name() string { return "sha256" }

func (SHA256Hasher) Hash(secret string) ([]byte, error) {
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

func (SHA256Hasher) Verify(stored []byte, candidate string) bool {
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(stored, sum[:]) == 1
}

func (SHA256Hasher) Decode(encoded string) ([]byte, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding sha256 secret_hash: %w", err)
	}
	if len(raw) != sha256.Size {
		return nil, fmt.Errorf("sha256 secret_hash must be %d bytes, got %d", sha256.Size, len(raw))
	}
	return raw, nil
}

// BcryptHasher stores secrets as salted bcrypt hashes.
type BcryptHasher struct {
	// Cost is the bcrypt work factor. Zero means bcrypt.DefaultCost.
	Cost int
}

func (BcryptHasher) Name() string { return "bcrypt" }

func (h BcryptHasher) Hash(secret string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

func (BcryptHasher) Verify(stored []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(stored, []byte(candidate)) == nil
}

func (BcryptHasher) Decode(encoded string) ([]byte, error) {
	if len(encoded) == 0 || encoded[0] != '$' {
		return nil, fmt.Errorf("bcrypt secret_hash must be a cost-prefixed bcrypt string")
	}
	return []byte(encoded), nil
}

// NewHasher builds the hasher selected in config.
func NewHasher(algorithm string, cost int) (Hasher, error) {
	switch algorithm {
	case "", "sha256":
		return SHA256Hasher{}, nil
	case "bcrypt":
		return BcryptHasher{Cost: cost}, nil
	default:
		return nil, fmt.Errorf("unknown hashing algorithm '%s'", algorithm)
	}
}
