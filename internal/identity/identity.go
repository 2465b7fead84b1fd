// Package identity adapts a bearer JWT into a subject for the permission
// engine (§6.2), using github.com/coreos/go-oidc/v3 to verify against a
// Keycloak-style OIDC issuer, grounded on the teacher's internal/auth
// package's user/session model adapted from cookie sessions to stateless
// bearer-token verification.
package identity

import (
	"context"
	"strings"

	oidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Identity is the resolved caller, or the zero value for an anonymous
// request. UserID is the subject recorded on Permission rows.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Roles    []string
}

// claims mirrors the subset of standard and Keycloak-specific claims this
// service reads out of a verified ID token.
type claims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// Verifier resolves bearer tokens into Identities.
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier constructs a Verifier against a Keycloak-style OIDC issuer.
// issuer is typically https://<host>/realms/<realm>.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Resolve verifies rawToken and extracts an Identity. Per §6.2, any
// verification failure (expired, bad signature, wrong audience) resolves to
// anonymity (ok=false), not an error: it is the HTTP middleware's job to
// turn that into a 401/403 where the route requires an identity.
func (v *Verifier) Resolve(ctx context.Context, rawToken string) (Identity, bool) {
	rawToken = strings.TrimSpace(strings.TrimPrefix(rawToken, "Bearer "))
	if rawToken == "" {
		return Identity{}, false
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, false
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		return Identity{}, false
	}

	return Identity{
		UserID:   idToken.Subject,
		Email:    c.Email,
		Username: c.PreferredUsername,
		Roles:    c.RealmAccess.Roles,
	}, true
}

// Endpoint exposes the issuer's discovered OAuth2 endpoint (authorization
// and token URLs), mirroring the teacher's OIDC adapter which always pairs
// an oidc.Provider with an oauth2.Config over that same discovered
// endpoint. It lets a confidential client mint its own service tokens
// (client_credentials grant) against the same issuer this Verifier checks
// bearer tokens against, without a second discovery round-trip.
func (v *Verifier) Endpoint() oauth2.Endpoint {
	return v.provider.Endpoint()
}
