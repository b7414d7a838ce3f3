package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

var tokens = tokenStub{
	"admin":  {AccountID: "admin-1", IsAdmin: true},
	"member": {AccountID: "account-1"},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/accounts/:id", handlers...)
	return r
}

func serve(r *gin.Engine, token, path string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(tokens))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "", "/accounts/x"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "bogus", "/accounts/x"))
	assert.Equal(t, http.StatusNoContent, serve(r, "member", "/accounts/x"))
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	var seen *models.JWTClaims
	r := newRouter(OptionalJWT(tokens), func(c *gin.Context) { seen = Claims(c) })
	assert.Equal(t, http.StatusNoContent, serve(r, "bogus", "/accounts/x"))
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusNoContent, serve(r, "admin", "/accounts/x"))
	assert.Equal(t, "admin-1", seen.AccountID)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(JWT(tokens), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, serve(r, "member", "/accounts/x"))
	assert.Equal(t, http.StatusNoContent, serve(r, "admin", "/accounts/x"))
}

func TestRequireSelfOrAdmin(t *testing.T) {
	r := newRouter(JWT(tokens), RequireSelfOrAdmin("id"))
	assert.Equal(t, http.StatusNoContent, serve(r, "member", "/accounts/account-1"))
	assert.Equal(t, http.StatusForbidden, serve(r, "member", "/accounts/account-2"))
	assert.Equal(t, http.StatusNoContent, serve(r, "admin", "/accounts/account-2"))
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &observerStub{}
	r := newRouter(Metrics(obs))
	serve(r, "", "/accounts/abc")
	assert.Equal(t, "/accounts/:id", obs.path)
	assert.Equal(t, http.StatusNoContent, obs.status)
}

func TestAuditLogsOnlySuccess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(JWT(tokens), Audit(zap.New(core), "set_admin"), RequireAdmin())

	serve(r, "member", "/accounts/x")
	assert.Equal(t, 0, logs.Len())

	serve(r, "admin", "/accounts/x")
	entries := logs.FilterMessage("audit").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "set_admin", fields["action"])
		assert.Equal(t, "admin-1", fields["account_id"])
	}
}
