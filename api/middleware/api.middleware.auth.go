package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
)

// TokenIntrospector is the part of the Keycloak client the middleware needs.
type TokenIntrospector interface {
	RetrospectToken(ctx context.Context, accessToken, clientID, clientSecret, realm string) (*gocloak.IntroSpectTokenResult, error)
	GetUserInfo(ctx context.Context, accessToken, realm string) (*gocloak.UserInfo, error)
}

type KeycloakMiddleware struct {
	client TokenIntrospector
	config config.KeycloakConfig
}

type UserContext struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type contextKey string

const userKey contextKey = "user"

func NewKeycloakMiddleware(cfg config.KeycloakConfig) *KeycloakMiddleware {
	return NewKeycloakMiddlewareWithClient(cfg, gocloak.NewClient(cfg.URL))
}

func NewKeycloakMiddlewareWithClient(cfg config.KeycloakConfig, client TokenIntrospector) *KeycloakMiddleware {
	return &KeycloakMiddleware{client: client, config: cfg}
}

// Authenticate validates the token and adds user info to context
func (k *KeycloakMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		result, err := k.client.RetrospectToken(r.Context(), token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
		if err != nil || result == nil || result.Active == nil || !*result.Active {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		info, err := k.client.GetUserInfo(r.Context(), token, k.config.Realm)
		if err != nil {
			handleError(w, errors.NewAuthError("failed to get user info", err))
			return
		}

		ctx := context.WithValue(r.Context(), userKey, newUserContext(info))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the caller set by Authenticate.
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userKey).(*UserContext)
	return user, ok
}

func newUserContext(info *gocloak.UserInfo) *UserContext {
	return &UserContext{
		ID:       gocloak.PString(info.Sub),
		Username: gocloak.PString(info.PreferredUsername),
		Email:    gocloak.PString(info.Email),
	}
}

func extractToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func handleError(w http.ResponseWriter, apiErr *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
