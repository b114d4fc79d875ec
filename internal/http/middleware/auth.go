package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/procurehq/reqflow/pkg/authz"
	"github.com/procurehq/reqflow/pkg/domain"
)

type contextKey string

const (
	// ActorKey is the context key for the authenticated actor.
	ActorKey contextKey = "actor"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
)

// AccessTokenClaims are the claims carried by a reqflow access token.
// Subject is the user id; the organization and role claims scope every
// request to a single tenant.
type AccessTokenClaims struct {
	OrganizationID string `json:"org_id"`
	OrgRole        string `json:"org_role"`
	GlobalRole     string `json:"global_role"`
	jwt.RegisteredClaims
}

// Auth creates middleware that validates JWT access tokens from the
// Authorization header and places the resolved actor on the request
// context.
func Auth(secret, issuer string) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
				return
			}

			claims := &AccessTokenClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
				jwt.WithIssuer(issuer),
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromClaims(claims *AccessTokenClaims) (authz.Actor, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("invalid token subject")
	}

	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("invalid org_id in token")
	}

	orgRole := domain.OrgRole(claims.OrgRole)
	if !orgRole.Valid() {
		return authz.Actor{}, fmt.Errorf("invalid org_role in token")
	}

	// global_role is optional; most tokens carry none.
	globalRole := domain.GlobalRoleMember
	if claims.GlobalRole != "" {
		globalRole = domain.GlobalRole(claims.GlobalRole)
		if !globalRole.Valid() {
			return authz.Actor{}, fmt.Errorf("invalid global_role in token")
		}
	}

	return authz.Actor{
		UserID:         userID,
		OrganizationID: orgID,
		OrgRole:        orgRole,
		GlobalRole:     globalRole,
	}, nil
}

// GetActor extracts the authenticated actor from the request context.
func GetActor(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(authz.Actor)
	return actor, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*AccessTokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims)
	return claims, ok
}
