package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signerToken(t *testing.T, role string, methode jwt.SigningMethod, cle interface{}) string {
	t.Helper()
	token := jwt.NewWithClaims(methode, jwt.MapClaims{
		"sub":  "8f14e45f-ea0a-4a3c-b2a7-111111111111",
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signe, err := token.SignedString(cle)
	require.NoError(t, err)
	return signe
}

func routerProtege(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protege", RequireRole(roles...), func(c *gin.Context) {
		role, _ := c.Get("userRole")
		c.JSON(http.StatusOK, gin.H{"role": role})
	})
	return r
}

func TestRequireRoleSansToken(t *testing.T) {
	r := routerProtege("admin")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleBearerValide(t *testing.T) {
	r := routerProtege("agent", "admin")
	token := signerToken(t, "agent", jwt.SigningMethodHS256, GetJWTSecret())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agent")
}

func TestRequireRoleCookieValide(t *testing.T) {
	r := routerProtege("directeur")
	token := signerToken(t, "directeur", jwt.SigningMethodHS256, GetJWTSecret())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleRoleInsuffisant(t *testing.T) {
	r := routerProtege("admin")
	token := signerToken(t, "agent", jwt.SigningMethodHS256, GetJWTSecret())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleMauvaiseSignature(t *testing.T) {
	r := routerProtege("admin")
	token := signerToken(t, "admin", jwt.SigningMethodHS256, []byte("autre_secret"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleFormatBearerInvalide(t *testing.T) {
	r := routerProtege("admin")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protege", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
