package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/darmiel/riegel/internal/api/middleware"
	"github.com/darmiel/riegel/internal/audit"
	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/credential"
	"github.com/darmiel/riegel/internal/factors"
	"github.com/darmiel/riegel/internal/ratelimit"
	"github.com/darmiel/riegel/internal/routes"
	"github.com/darmiel/riegel/internal/service"
	"github.com/darmiel/riegel/internal/token"
	"github.com/darmiel/riegel/internal/validation"
)

const testSigningKey = "server-test-signing-key"

type serverFixture struct {
	ts      *httptest.Server
	sink    *audit.MemoryAppender
	secrets map[string]string // per-principal totp secrets
}

func newServerFixture(t *testing.T, throttle *middleware.Throttle) *serverFixture {
	t.Helper()

	store, err := credential.NewStore(credential.SHA256Hasher{}, []config.PrincipalConfig{
		{Name: "admin", Role: "Admin", Secret: "4269"},
		{Name: "analyst", Role: "Analyst", Secret: "3141"},
		{Name: "guest", Role: "Guest", Secret: "1234"},
	})
	if err != nil {
		t.Fatalf("building store: %v", err)
	}

	secrets := make(map[string]string)
	for _, principal := range []string{"admin", "analyst", "guest"} {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "riegel", AccountName: principal})
		if err != nil {
			t.Fatalf("generating totp secret: %v", err)
		}
		secrets[principal] = key.Secret()
	}

	totpFactor, err := factors.NewTOTPFactor("totp", factors.TOTPConfig{Secrets: secrets}, nil)
	if err != nil {
		t.Fatalf("building totp factor: %v", err)
	}
	chain := []core.Factor{
		factors.NewSecretFactor("secret", store, ratelimit.New(3, 30*time.Second, nil)),
		factors.NewBiometricFactor("biometric", factors.NewKeywordProvider("scan", 0, time.Second)),
		totpFactor,
	}

	minter, err := token.NewSignedMinter(token.SignedConfig{SigningKey: testSigningKey}, nil)
	if err != nil {
		t.Fatalf("building minter: %v", err)
	}

	sink := audit.NewMemoryAppender()
	auditKey := []byte("server-test-audit-key")
	trail, err := audit.NewTrail(auditKey, nil, sink)
	if err != nil {
		t.Fatalf("building trail: %v", err)
	}

	tableRoutes, err := validation.ValidateRoutes([]core.Route{
		{Role: core.RoleAdmin, Path: "/admin/dashboard", Description: "system control panel"},
		{Role: core.RoleAnalyst, Path: "/analyst/evidence", Description: "forensic evidence dashboard"},
		{Role: core.RoleGuest, Path: "/guest/view", Description: "read-only toolkit"},
	})
	if err != nil {
		t.Fatalf("building routes: %v", err)
	}
	table := routes.NewTable(tableRoutes)

	svc := service.NewAuthService(store, chain, minter, trail, table, nil)
	server := NewServer(svc, sink, routes.NewEvidenceLog(trail), table, auditKey)

	ts := httptest.NewServer(server.Routes([]byte(testSigningKey), throttle))
	t.Cleanup(ts.Close)

	return &serverFixture{ts: ts, sink: sink, secrets: secrets}
}

// authenticate runs the full chain for the principal and returns the
// decoded response and status code.
func (f *serverFixture) authenticate(t *testing.T, principal, secret string) (AuthenticateResponse, int) {
	t.Helper()

	code := "000000"
	if totpSecret, ok := f.secrets[principal]; ok {
		generated, err := totp.GenerateCode(totpSecret, time.Now())
		if err != nil {
			t.Fatalf("generating totp code: %v", err)
		}
		code = generated
	}

	body, _ := json.Marshal(AuthenticatePayload{
		Principal: principal,
		Responses: map[string]string{
			"secret":    secret,
			"biometric": "scan",
			"totp":      code,
		},
	})
	resp, err := http.Post(f.ts.URL+AuthenticateRoute, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("posting authenticate: %v", err)
	}
	defer resp.Body.Close()

	var decoded AuthenticateResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return decoded, resp.StatusCode
}

func (f *serverFixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}

func TestServerHealth(t *testing.T) {
	f := newServerFixture(t, nil)

	resp, err := http.Get(f.ts.URL + HealthCheckRoute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServerAuthenticateAndAdminRoundTrip(t *testing.T) {
	f := newServerFixture(t, nil)

	decoded, status := f.authenticate(t, "admin", "4269")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if decoded.Role != core.RoleAdmin {
		t.Errorf("expected Admin, got %q", decoded.Role)
	}
	if decoded.Route.Path != "/admin/dashboard" {
		t.Errorf("expected the admin dashboard, got %q", decoded.Route.Path)
	}
	if decoded.Token == nil || decoded.Token.Value == "" {
		t.Fatal("expected a session token")
	}

	// The minted token opens the admin surface.
	resp := f.get(t, ListAuditsRoute, decoded.Token.Value)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from the admin surface, got %d", resp.StatusCode)
	}
	var entries []core.AuditEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != core.OutcomeSuccess {
		t.Errorf("expected one SUCCESS entry, got %+v", entries)
	}

	// And the chain over those entries verifies.
	verifyResp := f.get(t, VerifyAuditsRoute, decoded.Token.Value)
	defer verifyResp.Body.Close()
	var verify VerifyResponse
	if err := json.NewDecoder(verifyResp.Body).Decode(&verify); err != nil {
		t.Fatalf("decoding verify response: %v", err)
	}
	if !verify.Intact || verify.Entries != 1 {
		t.Errorf("expected an intact chain over 1 entry, got %+v", verify)
	}
}

func TestServerAuthenticateDenied(t *testing.T) {
	f := newServerFixture(t, nil)

	tests := []struct {
		name       string
		principal  string
		secret     string
		wantStatus int
	}{
		{name: "wrong secret", principal: "guest", secret: "0000", wantStatus: http.StatusUnauthorized},
		{name: "unknown principal", principal: "ghost", secret: "1234", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, status := f.authenticate(t, tt.principal, tt.secret)
			if status != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestServerLockoutStatus(t *testing.T) {
	f := newServerFixture(t, nil)

	for i := 0; i < 3; i++ {
		if _, status := f.authenticate(t, "guest", "0000"); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}
	if _, status := f.authenticate(t, "guest", "1234"); status != http.StatusTooManyRequests {
		t.Errorf("expected 429 while locked, got %d", status)
	}
}

func TestServerAdminSurfaceGuard(t *testing.T) {
	f := newServerFixture(t, nil)

	// No token at all.
	resp := f.get(t, ListAuditsRoute, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", resp.StatusCode)
	}

	// A guest token is valid but carries the wrong role.
	decoded, status := f.authenticate(t, "guest", "1234")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	resp = f.get(t, ListAuditsRoute, decoded.Token.Value)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for a guest, got %d", resp.StatusCode)
	}
}

func TestServerEvidenceTag(t *testing.T) {
	f := newServerFixture(t, nil)

	decoded, status := f.authenticate(t, "analyst", "3141")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	body, _ := json.Marshal(TagEvidencePayload{EvidenceID: "EVD-42", Note: "received from field team"})
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+TagEvidenceRoute, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+decoded.Token.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	entries, err := f.sink.Find(context.Background(), audit.Filter{Action: core.ActionEvidenceTag}, 0)
	if err != nil {
		t.Fatalf("finding entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 evidence entry, got %d", len(entries))
	}
	if entries[0].Principal != "analyst" {
		t.Errorf("expected the analyst as principal, got %q", entries[0].Principal)
	}
	if entries[0].Role != core.RoleAnalyst {
		t.Errorf("expected the analyst role, got %q", entries[0].Role)
	}
	if entries[0].Metadata["evidence_id"] != "EVD-42" {
		t.Errorf("expected the evidence ID in metadata, got %v", entries[0].Metadata)
	}
}

func TestServerExplainRoutes(t *testing.T) {
	f := newServerFixture(t, nil)

	decoded, status := f.authenticate(t, "admin", "4269")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	resp := f.get(t, ExplainRoute+"?principal=analyst&role=Analyst", decoded.Token.Value)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var trace core.RouteTrace
	if err := json.NewDecoder(resp.Body).Decode(&trace); err != nil {
		t.Fatalf("decoding trace: %v", err)
	}
	if !trace.Matched || trace.Path != "/analyst/evidence" {
		t.Errorf("expected the evidence route to match, got %+v", trace)
	}
}

func TestServerThrottle(t *testing.T) {
	f := newServerFixture(t, middleware.NewThrottle(1, 1))

	first, err := http.Get(f.ts.URL + HealthCheckRoute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected the first request to pass, got %d", first.StatusCode)
	}

	second, err := http.Get(f.ts.URL + HealthCheckRoute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 on the burst limit, got %d", second.StatusCode)
	}
}
