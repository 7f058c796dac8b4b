package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(SHA256Hasher{}, []config.PrincipalConfig{
		{Name: "admin", Role: "Admin", Secret: "4269"},
		{Name: "analyst", Role: "Analyst", Secret: "3141"},
		{Name: "guest", Role: "Guest", Secret: "1234"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func TestStoreLookup(t *testing.T) {
	store := testStore(t)

	rec, err := store.Lookup(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Role != core.RoleAdmin {
		t.Errorf("expected role %q, got %q", core.RoleAdmin, rec.Role)
	}
	if len(rec.SecretHash) != sha256.Size {
		t.Errorf("expected %d byte hash, got %d", sha256.Size, len(rec.SecretHash))
	}

	if _, err := store.Lookup(context.Background(), "ghost"); !errors.Is(err, core.ErrUnknownPrincipal) {
		t.Errorf("expected ErrUnknownPrincipal, got %v", err)
	}
}

func TestStoreVerifySecret(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal string
		candidate string
		want      bool
		wantErr   error
	}{
		{name: "correct secret", principal: "admin", candidate: "4269", want: true},
		{name: "wrong secret", principal: "admin", candidate: "0000", want: false},
		{name: "other principals secret", principal: "guest", candidate: "4269", want: false},
		{name: "unknown principal", principal: "ghost", candidate: "4269", wantErr: core.ErrUnknownPrincipal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.VerifySecret(ctx, tt.principal, tt.candidate)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestStoreSeedsFromPreHashedSecret(t *testing.T) {
	sum := sha256.Sum256([]byte("3141"))
	store, err := NewStore(SHA256Hasher{}, []config.PrincipalConfig{
		{Name: "analyst", Role: "Analyst", SecretHash: hex.EncodeToString(sum[:])},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := store.VerifySecret(context.Background(), "analyst", "3141")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected pre-hashed secret to verify")
	}
}

func TestNewStoreRejectsBadSeeds(t *testing.T) {
	tests := []struct {
		name      string
		principal config.PrincipalConfig
		wantErr   string
	}{
		{
			name:      "unknown role",
			principal: config.PrincipalConfig{Name: "admin", Role: "Root", Secret: "x"},
			wantErr:   "unknown role",
		},
		{
			name:      "malformed hash",
			principal: config.PrincipalConfig{Name: "admin", Role: "Admin", SecretHash: "not-hex"},
			wantErr:   "decoding sha256",
		},
		{
			name:      "truncated hash",
			principal: config.PrincipalConfig{Name: "admin", Role: "Admin", SecretHash: "deadbeef"},
			wantErr:   "must be 32 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(SHA256Hasher{}, []config.PrincipalConfig{tt.principal})
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}
