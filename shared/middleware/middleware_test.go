package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type stubKeys struct {
	principal *Principal
	err       error
}

func (s *stubKeys) ResolveAPIKey(_ context.Context, _ string) (*Principal, error) {
	return s.principal, s.err
}

type stubFlags struct {
	state models.MaintenanceState
	err   error
}

func (s *stubFlags) Get(context.Context) (models.MaintenanceState, error) {
	return s.state, s.err
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		if p == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": p.UserID, "actorId": p.ActorID()})
	})
	r.GET("/test", chain...)
	return r
}

func doRequest(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signed(t *testing.T, purpose string, ttl time.Duration) string {
	token, err := SignToken(testSecret, Claims{
		UserID:      "usr-1",
		AccountID:   "acc-1",
		Email:       "alice@example.com",
		Permissions: []string{models.PermUsersRead},
		Purpose:     purpose,
	}, time.Now(), ttl)
	require.NoError(t, err)
	return token
}

func TestAuthenticator(t *testing.T) {
	keys := &stubKeys{principal: &Principal{AccountID: "acc-1", APIKeyID: "key-1", Permissions: []string{models.PermContentRead}}}

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectedActor  string
	}{
		{
			name:           "valid bearer token",
			headers:        map[string]string{"Authorization": "Bearer " + signed(t, PurposeAccess, time.Minute)},
			expectedStatus: http.StatusOK,
			expectedActor:  "usr-1",
		},
		{
			name:           "missing header",
			headers:        nil,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			headers:        map[string]string{"Authorization": "Token abc"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			headers:        map[string]string{"Authorization": "Bearer " + signed(t, PurposeAccess, -time.Minute)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "mfa challenge token is not an access token",
			headers:        map[string]string{"Authorization": "Bearer " + signed(t, PurposeMFA, time.Minute)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "api key",
			headers:        map[string]string{APIKeyHeader: "sk_abc_def"},
			expectedStatus: http.StatusOK,
			expectedActor:  "key-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(NewAuthenticator(testSecret, keys).Middleware())
			w := doRequest(r, tt.headers)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedActor != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedActor, body["actorId"])
			}
		})
	}
}

func TestAuthenticator_RejectedAPIKey(t *testing.T) {
	keys := &stubKeys{err: apperrors.ErrInvalidAPIKey}
	r := newTestRouter(NewAuthenticator(testSecret, keys).Middleware())
	w := doRequest(r, map[string]string{APIKeyHeader: "sk_abc_def"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_API_KEY")
}

func withPrincipal(p *Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			SetPrincipal(c, p)
		}
		c.Next()
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name           string
		principal      *Principal
		expectedStatus int
	}{
		{"has permission", &Principal{UserID: "usr-1", Permissions: []string{models.PermUsersRead}}, http.StatusOK},
		{"missing permission", &Principal{UserID: "usr-1", Permissions: []string{models.PermRolesRead}}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(withPrincipal(tt.principal), RequirePermission(models.PermUsersRead))
			assert.Equal(t, tt.expectedStatus, doRequest(r, nil).Code)
		})
	}
}

func TestRequirePlatformAdmin(t *testing.T) {
	tenant := &Principal{UserID: "usr-1", Permissions: []string{models.PermSystemAdmin}}
	admin := &Principal{UserID: "usr-2", Permissions: []string{models.PermSystemAdmin}, PlatformAdmin: true}

	assert.Equal(t, http.StatusForbidden, doRequest(newTestRouter(withPrincipal(tenant), RequirePlatformAdmin()), nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(newTestRouter(withPrincipal(admin), RequirePlatformAdmin()), nil).Code)
}

func TestRequireUser(t *testing.T) {
	key := &Principal{AccountID: "acc-1", APIKeyID: "key-1"}
	user := &Principal{AccountID: "acc-1", UserID: "usr-1"}

	assert.Equal(t, http.StatusForbidden, doRequest(newTestRouter(withPrincipal(key), RequireUser()), nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(newTestRouter(withPrincipal(user), RequireUser()), nil).Code)
}

func TestMaintenanceGuard(t *testing.T) {
	on := &stubFlags{state: models.MaintenanceState{Enabled: true, Message: "back soon"}}

	tests := []struct {
		name           string
		flags          *stubFlags
		principal      *Principal
		expectedStatus int
	}{
		{"off", &stubFlags{}, &Principal{UserID: "usr-1"}, http.StatusOK},
		{"on blocks tenants", on, &Principal{UserID: "usr-1"}, http.StatusServiceUnavailable},
		{"on admits platform admins", on, &Principal{UserID: "usr-1", PlatformAdmin: true}, http.StatusOK},
		{"lookup failure lets requests through", &stubFlags{err: errors.New("redis down")}, &Principal{UserID: "usr-1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(withPrincipal(tt.principal), MaintenanceGuard(tt.flags))
			w := doRequest(r, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusServiceUnavailable {
				assert.Contains(t, w.Body.String(), "back soon")
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter("test", 0.001, 2)
	r := newTestRouter(rl.Middleware())

	assert.Equal(t, http.StatusOK, doRequest(r, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, nil).Code)
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(RequestID())

	w := doRequest(r, map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = doRequest(r, nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"app error", apperrors.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"wrapped app error", apperrors.ErrEmailTaken.WithCause(errors.New("pq: duplicate")), http.StatusConflict, "EMAIL_TAKEN"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(func(c *gin.Context) {
				RespondWithAppError(c, tt.err)
				c.Abort()
			})
			w := doRequest(r, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedCode, body.Code)
		})
	}
}
