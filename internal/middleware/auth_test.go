package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"iot-fleet-hub/internal/config"
	"iot-fleet-hub/internal/logger"
	"iot-fleet-hub/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	m.Run()
}

func newAuthTestRouter(secret string) *gin.Engine {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}

	router := gin.New()
	protected := router.Group("/protected")
	protected.Use(AuthMiddleware(cfg))
	protected.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": c.GetString("operator")})
	})

	admin := protected.Group("/admin")
	admin.Use(AdminOnly())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router
}

func doAuthRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsIssuedToken(t *testing.T) {
	router := newAuthTestRouter("test-secret")

	token, err := utils.GenerateOperatorToken("ops@example.com", "viewer", "test-secret", 1)
	require.NoError(t, err)

	w := doAuthRequest(router, "/protected/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ops@example.com")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	router := newAuthTestRouter("test-secret")

	w := doAuthRequest(router, "/protected/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsTokenSignedWithWrongSecret(t *testing.T) {
	router := newAuthTestRouter("test-secret")

	token, err := utils.GenerateOperatorToken("ops@example.com", "viewer", "other-secret", 1)
	require.NoError(t, err)

	w := doAuthRequest(router, "/protected/ping", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnlyRejectsNonAdminRole(t *testing.T) {
	router := newAuthTestRouter("test-secret")

	token, err := utils.GenerateOperatorToken("ops@example.com", "viewer", "test-secret", 1)
	require.NoError(t, err)

	w := doAuthRequest(router, "/protected/admin/ping", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnlyAllowsAdminRole(t *testing.T) {
	router := newAuthTestRouter("test-secret")

	token, err := utils.GenerateOperatorToken("admin@example.com", "admin", "test-secret", 1)
	require.NoError(t, err)

	w := doAuthRequest(router, "/protected/admin/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
