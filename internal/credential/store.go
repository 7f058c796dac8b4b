package credential

import (
	"context"
	"fmt"

	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
)

// Store is an in-memory credential store seeded from config.
// Records never change after construction, so lookups take no lock.
type Store struct {
	hasher  Hasher
	records map[string]core.CredentialRecord
}

// NewStore seeds a store from the configured principals. Plain secrets
// are hashed immediately; pre-hashed secrets are decoded with the
// given hasher.
func NewStore(hasher Hasher, principals []config.PrincipalConfig) (*Store, error) {
	records := make(map[string]core.CredentialRecord, len(principals))
	for _, p := range principals {
		role, err := core.ParseRole(p.Role)
		if err != nil {
			return nil, fmt.Errorf("principal '%s': %w", p.Name, err)
		}

		var hash []byte
		if p.SecretHash != "" {
			hash, err = hasher.Decode(p.SecretHash)
		} else {
			hash, err = hasher.Hash(p.Secret)
		}
		if err != nil {
			return nil, fmt.Errorf("principal '%s': %w", p.Name, err)
		}

		records[p.Name] = core.CredentialRecord{
			Principal:  p.Name,
			SecretHash: hash,
			Role:       role,
		}
	}
	return &Store{hasher: hasher, records: records}, nil
}

func (s *Store) Lookup(_ context.Context, principal string) (core.CredentialRecord, error) {
	rec, ok := s.records[principal]
	if !ok {
		return core.CredentialRecord{}, core.ErrUnknownPrincipal
	}
	return rec, nil
}

func (s *Store) VerifySecret(ctx context.Context, principal, candidate string) (bool, error) {
	rec, err := s.Lookup(ctx, principal)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(rec.SecretHash, candidate), nil
}
