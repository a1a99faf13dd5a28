package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"

	"school-inventory/internal/model"
	"school-inventory/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityKey = "identity"

// Claims carried by access tokens issued by the school's auth service
type Claims struct {
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// InitAuth sets the HMAC secret used to verify access tokens
func InitAuth(secret []byte) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = secret
}

func GetJWTSecret() []byte {
	secretMu.RLock()
	secret := jwtSecret
	secretMu.RUnlock()
	if len(secret) > 0 {
		return secret
	}

	env := os.Getenv("JWT_SECRET")
	if env == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		env = "default_super_secret_key" // Development fallback only
	}
	return []byte(env)
}

// ParseIdentity verifies a token and extracts the caller identity
func ParseIdentity(tokenString string, secret []byte) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return model.Identity{}, err
	}
	if !token.Valid {
		return model.Identity{}, errors.New("token is not valid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, errors.New("token subject is not a user id")
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return model.Identity{}, err
	}

	identity := model.Identity{UserID: userID, Role: role}
	if claims.DepartmentID != "" {
		deptID, err := uuid.Parse(claims.DepartmentID)
		if err != nil {
			return model.Identity{}, errors.New("token department_id is not a valid id")
		}
		identity.DepartmentID = &deptID
	}
	return identity, nil
}

func tokenFromRequest(c *gin.Context) (string, string) {
	// Try cookie first, fallback to Authorization header
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireRole validates the JWT and checks the caller's role is one of allowedRoles.
// With no roles given any authenticated caller passes.
func RequireRole(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		identity, err := ParseIdentity(tokenString, GetJWTSecret())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		if len(allowedRoles) > 0 {
			roleAllowed := false
			for _, role := range allowedRoles {
				if identity.Role == role {
					roleAllowed = true
					break
				}
			}
			if !roleAllowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
				return
			}
		}

		c.Set(identityKey, identity)
		c.Set("userID", identity.UserID.String())
		c.Set("userRole", string(identity.Role))

		c.Next()
	}
}

// CurrentIdentity returns the identity stored by RequireRole
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
