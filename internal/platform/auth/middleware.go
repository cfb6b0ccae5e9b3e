package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/karsa-studio/api/internal/platform/httpx"
)

// Admin roles are carried in the "role" custom claim, set through the
// Firebase Admin SDK when a staff account is provisioned.
const (
	roleClaim  = "role"
	emailClaim = "email"

	defaultVerifyTimeout = 5 * time.Second
)

var (
	// ErrTokenExpired signals that the Firebase ID token has expired.
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	// ErrTokenInvalid signals that the Firebase ID token failed verification.
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// UserGetter retrieves Firebase user records.
type UserGetter interface {
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
}

// Authenticator turns Firebase token verification into HTTP middleware for
// the admin console routes.
type Authenticator struct {
	verifier TokenVerifier
	users    UserGetter
	timeout  time.Duration
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithUserGetter enables lazy user record loading through the Firebase
// Admin API.
func WithUserGetter(getter UserGetter) Option {
	return func(a *Authenticator) {
		a.users = getter
	}
}

// WithVerifyTimeout bounds token verification and user record loading.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator around a token verifier.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier: verifier,
		timeout:  defaultVerifyTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireFirebaseAuth verifies the Authorization bearer token and, when
// roles are given, requires at least one of them on the identity. Tokens
// without a role claim fall back to the user role.
func (a *Authenticator) RequireFirebaseAuth(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		if role = normaliseRole(role); role != "" {
			allowed[role] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authorization header missing or invalid", http.StatusUnauthorized))
				return
			}
			if a == nil || a.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authorization service unavailable", http.StatusUnauthorized))
				return
			}

			verifyCtx, cancel := a.boundContext(ctx)
			if cancel != nil {
				defer cancel()
			}
			token, err := a.verifier.VerifyIDToken(verifyCtx, tokenStr)
			if err != nil {
				writeVerificationError(ctx, w, err)
				return
			}

			identity := &Identity{
				UID:   token.UID,
				Email: claimAsString(token.Claims, emailClaim),
				Roles: rolesFromClaim(token.Claims[roleClaim]),
				token: token,
			}
			if len(identity.Roles) == 0 {
				identity.Roles = []string{RoleUser}
			}

			if len(allowed) > 0 && !hasAllowedRole(identity.Roles, allowed) {
				httpx.WriteError(ctx, w, httpx.NewError("insufficient_role", "identity does not have required role", http.StatusUnauthorized))
				return
			}

			if a.users != nil {
				identity.userLoader = func(ctx context.Context, uid string) (*firebaseauth.UserRecord, error) {
					if uid == "" {
						uid = identity.UID
					}
					ctx, cancel := a.boundContext(ctx)
					if cancel != nil {
						defer cancel()
					}
					return a.users.GetUser(ctx, uid)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

func (a *Authenticator) boundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a == nil || a.timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeout)
}

func hasAllowedRole(roles []string, allowed map[string]struct{}) bool {
	for _, role := range roles {
		if _, ok := allowed[normaliseRole(role)]; ok {
			return true
		}
	}
	return false
}

// rolesFromClaim accepts the claim shapes the Firebase Admin SDK produces:
// a single role string, a list of roles, or a role->bool map.
func rolesFromClaim(raw any) []string {
	switch v := raw.(type) {
	case string:
		if role := normaliseRole(v); role != "" {
			return []string{role}
		}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		seen := make(map[string]struct{}, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				continue
			}
			role := normaliseRole(str)
			if role == "" {
				continue
			}
			if _, dup := seen[role]; dup {
				continue
			}
			seen[role] = struct{}{}
			out = append(out, role)
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(v))
		for key, value := range v {
			enabled, ok := value.(bool)
			if !ok || !enabled {
				continue
			}
			if role := normaliseRole(key); role != "" {
				out = append(out, role)
			}
		}
		return out
	default:
		return nil
	}
}

func claimAsString(claims map[string]any, key string) string {
	if str, ok := claims[key].(string); ok {
		return strings.TrimSpace(str)
	}
	return ""
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func writeVerificationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired), firebaseauth.IsIDTokenExpired(err):
		httpx.WriteError(ctx, w, httpx.NewError("token_expired", "firebase id token expired", http.StatusUnauthorized))
	case errors.Is(err, ErrTokenInvalid), firebaseauth.IsIDTokenInvalid(err):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "firebase id token invalid", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "firebase id token verification failed", http.StatusUnauthorized))
	}
}
