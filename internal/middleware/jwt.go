package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

const (
	// ContextAdminKey is the gin context key storing admin JWT claims.
	ContextAdminKey = "currentAdmin"
	// ContextPrincipalKey is the gin context key storing the content API caller.
	ContextPrincipalKey = "principal"
)

type adminTokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.AdminClaims, error)
}

type apiTokenAuthenticator interface {
	Authenticate(ctx context.Context, key string) (*models.APIToken, error)
}

type userTokenValidator interface {
	ValidateToken(token string) (*models.UserClaims, error)
}

// AdminJWT protects admin routes by requiring a valid, unrevoked admin token.
func AdminJWT(auth adminTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// ContentAuth resolves the caller of a content API request. Requests without a bearer token
// run as the public role; JWTs are end-user sessions and anything else is an API token key.
func ContentAuth(apiTokens apiTokenAuthenticator, users userTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if token == "" {
			c.Set(ContextPrincipalKey, &models.Principal{Kind: models.PrincipalPublic, Role: models.PrincipalPublic})
			c.Next()
			return
		}

		if strings.Count(token, ".") == 2 {
			claims, err := users.ValidateToken(token)
			if err != nil {
				response.Error(c, err)
				return
			}
			c.Set(ContextPrincipalKey, &models.Principal{Kind: models.PrincipalUser, ID: claims.UserID, Role: models.RoleAuthenticated})
			c.Next()
			return
		}

		apiToken, err := apiTokens.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(ContextPrincipalKey, &models.Principal{
			Kind:     models.PrincipalAPIToken,
			ID:       apiToken.ID,
			Role:     string(apiToken.Type),
			Token:    apiToken,
			ReadOnly: apiToken.Type == models.APITokenReadOnly,
		})
		c.Next()
	}
}

// bearerToken returns "" when no Authorization header is present.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "Invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
