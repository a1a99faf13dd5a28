package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"school-inventory/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestParseIdentity(t *testing.T) {
	userID := uuid.New()
	deptID := uuid.New()
	token := signToken(t, testSecret, Claims{
		Role:             "department_head",
		DepartmentID:     deptID.String(),
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	})

	identity, err := ParseIdentity(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, model.RoleDepartmentHead, identity.Role)
	require.NotNil(t, identity.DepartmentID)
	assert.Equal(t, deptID, *identity.DepartmentID)
}

func TestParseIdentityRejects(t *testing.T) {
	userID := uuid.New().String()

	_, err := ParseIdentity(signToken(t, []byte("other"), Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}), testSecret)
	assert.Error(t, err, "wrong secret")

	_, err = ParseIdentity(signToken(t, testSecret, Claims{Role: "janitor", RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}), testSecret)
	assert.Error(t, err, "unknown role")

	expired := jwt.RegisteredClaims{Subject: userID, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	_, err = ParseIdentity(signToken(t, testSecret, Claims{Role: "admin", RegisteredClaims: expired}), testSecret)
	assert.Error(t, err, "expired")
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitAuth(testSecret)
	t.Cleanup(func() { InitAuth(nil) })

	router := gin.New()
	router.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(identity.Role))
	})

	call := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)

	staff := signToken(t, testSecret, Claims{Role: "staff", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.New().String()}})
	assert.Equal(t, http.StatusForbidden, call("Bearer "+staff).Code)

	admin := signToken(t, testSecret, Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.New().String()}})
	w := call("Bearer " + admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}
