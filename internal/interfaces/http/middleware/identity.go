package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys for the resolved request identity
const (
	TenantIDKey = "tenant_id"
	ActorIDKey  = "actor_id"
)

// IdentityConfig configures the identity middleware
type IdentityConfig struct {
	// Secret is the HMAC key for bearer tokens. When empty, tokens are not
	// parsed and only headers establish identity.
	Secret string
	// Issuer, when set, is enforced on parsed tokens
	Issuer string
	// AllowHeaderFallback accepts X-Tenant-ID / X-Actor-ID headers when no
	// valid token is present. Intended for development and
	// service-to-service traffic behind a trusted gateway.
	AllowHeaderFallback bool
}

// identityClaims are the token claims this service reads
type identityClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// Identity resolves the tenant and actor of each request from a bearer
// token, falling back to headers when configured. Resolution is best
// effort: handlers decide whether a missing identity is an error.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret != "" {
			if token := bearerToken(c); token != "" {
				if claims := parseToken(token, cfg); claims != nil {
					if claims.TenantID != "" {
						c.Set(TenantIDKey, claims.TenantID)
					}
					if claims.Subject != "" {
						c.Set(ActorIDKey, claims.Subject)
					}
				}
			}
		}

		if cfg.AllowHeaderFallback {
			if _, ok := c.Get(TenantIDKey); !ok {
				if v := c.GetHeader("X-Tenant-ID"); v != "" {
					c.Set(TenantIDKey, v)
				}
			}
			if _, ok := c.Get(ActorIDKey); !ok {
				if v := c.GetHeader("X-Actor-ID"); v != "" {
					c.Set(ActorIDKey, v)
				}
			}
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func parseToken(raw string, cfg IdentityConfig) *identityClaims {
	claims := &identityClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil
	}
	return claims
}

// GetTenantID returns the resolved tenant id, empty when unresolved
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetActorID returns the resolved actor id, empty when unresolved
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}
