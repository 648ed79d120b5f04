package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

const (
	PurposeAccess = "access"
	PurposeMFA    = "mfa"

	principalKey = "principal"
	APIKeyHeader = "X-API-Key"
)

// Claims is the payload of access and MFA-challenge tokens.
type Claims struct {
	UserID        string   `json:"userId"`
	AccountID     string   `json:"accountId"`
	Email         string   `json:"email"`
	SessionID     string   `json:"sessionId,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	PlatformAdmin bool     `json:"platformAdmin,omitempty"`
	Purpose       string   `json:"purpose"`
	jwt.RegisteredClaims
}

// SignToken signs claims with HS256, stamping issued-at and expiry.
func SignToken(secret []byte, claims Claims, now time.Time, ttl time.Duration) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.Subject = claims.UserID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates signature, expiry at now and purpose.
func ParseToken(secret []byte, tokenString, purpose string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}
	if claims.Purpose != purpose {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID     string
	UserID        string
	Email         string
	SessionID     string
	APIKeyID      string
	Permissions   []string
	PlatformAdmin bool
}

func (p *Principal) Has(perm string) bool {
	return lo.Contains(p.Permissions, perm)
}

// ActorID is the user id, or the API key id for machine callers.
func (p *Principal) ActorID() string {
	if p.APIKeyID != "" {
		return p.APIKeyID
	}
	return p.UserID
}

func (p *Principal) Actor() cqrs.Actor {
	return cqrs.Actor{AccountID: p.AccountID, UserID: p.ActorID()}
}

// APIKeyResolver turns a raw X-API-Key value into a principal.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, rawKey string) (*Principal, error)
}

type Authenticator struct {
	secret []byte
	keys   APIKeyResolver
}

// NewAuthenticator accepts bearer tokens, and API keys when keys is non-nil.
func NewAuthenticator(secret []byte, keys APIKeyResolver) *Authenticator {
	return &Authenticator{secret: secret, keys: keys}
}

func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.authenticate(c)
		if err != nil {
			RespondWithAppError(c, err)
			c.Abort()
			return
		}
		SetPrincipal(c, principal)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*Principal, error) {
	if raw := c.GetHeader(APIKeyHeader); raw != "" && a.keys != nil {
		return a.keys.ResolveAPIKey(c.Request.Context(), raw)
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, apperrors.ErrUnauthorized.WithMessage("Authorization header required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, apperrors.ErrUnauthorized.WithMessage("Invalid authorization header format")
	}

	claims, err := ParseToken(a.secret, parts[1], PurposeAccess, time.Now())
	if err != nil {
		return nil, err
	}
	return &Principal{
		AccountID:     claims.AccountID,
		UserID:        claims.UserID,
		Email:         claims.Email,
		SessionID:     claims.SessionID,
		Permissions:   claims.Permissions,
		PlatformAdmin: claims.PlatformAdmin,
	}, nil
}

// RequirePermission aborts with 403 unless the principal holds every perm.
func RequirePermission(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			RespondWithAppError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, perm := range perms {
			if !p.Has(perm) {
				RespondWithAppError(c, apperrors.ErrForbidden.WithMessage("missing permission "+perm))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequirePlatformAdmin admits only users of the platform account holding system:admin.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			RespondWithAppError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !p.PlatformAdmin || !p.Has(models.PermSystemAdmin) {
			RespondWithAppError(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser rejects API-key principals on endpoints that act on the
// calling user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || p.APIKeyID != "" || p.UserID == "" {
			RespondWithAppError(c, apperrors.ErrForbidden.WithMessage("this endpoint requires a user session"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// MustPrincipal is for handlers mounted behind the authenticator.
func MustPrincipal(c *gin.Context) *Principal {
	p, ok := GetPrincipal(c)
	if !ok {
		panic(errors.New("handler mounted without authentication"))
	}
	return p
}
