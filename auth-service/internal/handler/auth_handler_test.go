package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/auth-service/internal/command"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

// ---- mock implementations ----

type mockAuthCommander struct {
	loginFn   func(cqrs.LoginCommand) (*command.LoginResult, error)
	verifyFn  func(cqrs.VerifyMFACommand) (*command.TokenPair, error)
	refreshFn func(cqrs.RefreshTokenCommand) (*command.TokenPair, error)
	logoutFn  func(cqrs.LogoutCommand) error
	revokeFn  func(cqrs.RevokeSessionCommand) error
	enableFn  func(cqrs.EnableMFACommand) (*models.UserView, error)
}

func (m *mockAuthCommander) Login(_ context.Context, cmd cqrs.LoginCommand) (*command.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAuthCommander) VerifyMFA(_ context.Context, cmd cqrs.VerifyMFACommand) (*command.TokenPair, error) {
	if m.verifyFn != nil {
		return m.verifyFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAuthCommander) Refresh(_ context.Context, cmd cqrs.RefreshTokenCommand) (*command.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAuthCommander) Logout(_ context.Context, cmd cqrs.LogoutCommand) error {
	if m.logoutFn != nil {
		return m.logoutFn(cmd)
	}
	return fmt.Errorf("not configured")
}

func (m *mockAuthCommander) RevokeSession(_ context.Context, cmd cqrs.RevokeSessionCommand) error {
	if m.revokeFn != nil {
		return m.revokeFn(cmd)
	}
	return fmt.Errorf("not configured")
}

func (m *mockAuthCommander) SetupMFA(_ context.Context, _ cqrs.SetupMFACommand) (*command.MFASetup, error) {
	return &command.MFASetup{Secret: "JBSWY3DPEHPK3PXP", URL: "otpauth://totp/x"}, nil
}

func (m *mockAuthCommander) EnableMFA(_ context.Context, cmd cqrs.EnableMFACommand) (*models.UserView, error) {
	if m.enableFn != nil {
		return m.enableFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAuthCommander) DisableMFA(_ context.Context, _ cqrs.DisableMFACommand) (*models.UserView, error) {
	return nil, apperrors.ErrMFANotEnabled
}

type mockSessionQuerier struct {
	listFn func(cqrs.ListSessionsQuery) ([]models.SessionView, error)
}

func (m *mockSessionQuerier) ListSessions(_ context.Context, q cqrs.ListSessionsQuery) ([]models.SessionView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func userPrincipal() *middleware.Principal {
	return &middleware.Principal{AccountID: "acc-1", UserID: "usr-1", SessionID: "ses-1"}
}

func newAuthTestRouter(cmds AuthCommander, qrys SessionQuerier, p *middleware.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(cmds, qrys)
	h.RegisterPublicRoutes(r.Group("/v1/auth"))
	h.RegisterRoutes(r.Group("/v1/auth", func(c *gin.Context) {
		if p != nil {
			middleware.SetPrincipal(c, p)
		}
		c.Next()
	}))
	return r
}

func authDoRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenPair() *command.TokenPair {
	return &command.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}
}

// ---- tests ----

func TestLogin(t *testing.T) {
	valid := map[string]string{"accountSlug": "acme", "email": "alice@acme.io", "password": "correct-horse"}

	tests := []struct {
		name           string
		body           any
		loginFn        func(cqrs.LoginCommand) (*command.LoginResult, error)
		expectedStatus int
		expectedKey    string
	}{
		{
			name: "success - token pair",
			body: valid,
			loginFn: func(cmd cqrs.LoginCommand) (*command.LoginResult, error) {
				if cmd.AccountSlug != "acme" || cmd.Email != "alice@acme.io" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return &command.LoginResult{TokenPair: tokenPair()}, nil
			},
			expectedStatus: http.StatusOK,
			expectedKey:    "accessToken",
		},
		{
			name: "success - mfa challenge",
			body: valid,
			loginFn: func(cqrs.LoginCommand) (*command.LoginResult, error) {
				return &command.LoginResult{MFARequired: true, MFAToken: "mfa"}, nil
			},
			expectedStatus: http.StatusOK,
			expectedKey:    "mfaToken",
		},
		{
			name:           "bad request - missing account slug",
			body:           map[string]string{"email": "alice@acme.io", "password": "x"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - invalid email",
			body:           map[string]string{"accountSlug": "acme", "email": "nope", "password": "x"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unauthorised - invalid credentials",
			body: valid,
			loginFn: func(cqrs.LoginCommand) (*command.LoginResult, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "locked user",
			body: valid,
			loginFn: func(cqrs.LoginCommand) (*command.LoginResult, error) {
				return nil, apperrors.ErrUserLocked
			},
			expectedStatus: http.StatusLocked,
		},
		{
			name: "suspended account",
			body: valid,
			loginFn: func(cqrs.LoginCommand) (*command.LoginResult, error) {
				return nil, apperrors.ErrAccountSuspended
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthCommander{loginFn: tt.loginFn}, &mockSessionQuerier{}, nil)
			w := authDoRequest(router, http.MethodPost, "/v1/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedKey != "" {
				var resp map[string]any
				_ = json.Unmarshal(w.Body.Bytes(), &resp)
				if _, ok := resp[tt.expectedKey]; !ok {
					t.Errorf("expected %q in response, got %s", tt.expectedKey, w.Body.String())
				}
			}
		})
	}
}

func TestVerifyMFA(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		verifyFn       func(cqrs.VerifyMFACommand) (*command.TokenPair, error)
		expectedStatus int
	}{
		{
			name:           "success",
			body:           map[string]string{"mfaToken": "mfa", "code": "123456"},
			verifyFn:       func(cqrs.VerifyMFACommand) (*command.TokenPair, error) { return tokenPair(), nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - short code",
			body:           map[string]string{"mfaToken": "mfa", "code": "123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - non numeric code",
			body:           map[string]string{"mfaToken": "mfa", "code": "12345a"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unauthorised - wrong code",
			body:           map[string]string{"mfaToken": "mfa", "code": "000000"},
			verifyFn:       func(cqrs.VerifyMFACommand) (*command.TokenPair, error) { return nil, apperrors.ErrInvalidMFACode },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthCommander{verifyFn: tt.verifyFn}, &mockSessionQuerier{}, nil)
			w := authDoRequest(router, http.MethodPost, "/v1/auth/mfa/verify", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		refreshFn      func(cqrs.RefreshTokenCommand) (*command.TokenPair, error)
		expectedStatus int
	}{
		{
			name:           "success",
			body:           map[string]string{"refreshToken": "refresh"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (*command.TokenPair, error) { return tokenPair(), nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unauthorised - revoked session",
			body:           map[string]string{"refreshToken": "refresh"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (*command.TokenPair, error) { return nil, apperrors.ErrInvalidToken },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthCommander{refreshFn: tt.refreshFn}, &mockSessionQuerier{}, nil)
			w := authDoRequest(router, http.MethodPost, "/v1/auth/refresh", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthedRoutes(t *testing.T) {
	cmds := &mockAuthCommander{
		logoutFn: func(cmd cqrs.LogoutCommand) error {
			if cmd.UserID != "usr-1" {
				return apperrors.ErrForbidden
			}
			return nil
		},
		revokeFn: func(cmd cqrs.RevokeSessionCommand) error {
			if cmd.SessionID != "ses-1" {
				return apperrors.ErrSessionNotFound
			}
			return nil
		},
		enableFn: func(cqrs.EnableMFACommand) (*models.UserView, error) {
			return &models.UserView{ID: "usr-1", MFAEnabled: true}, nil
		},
	}
	qrys := &mockSessionQuerier{listFn: func(q cqrs.ListSessionsQuery) ([]models.SessionView, error) {
		return []models.SessionView{{ID: q.CurrentSessionID, Current: true}}, nil
	}}

	tests := []struct {
		name           string
		principal      *middleware.Principal
		method         string
		url            string
		body           any
		expectedStatus int
	}{
		{name: "logout", principal: userPrincipal(), method: http.MethodPost, url: "/v1/auth/logout", body: map[string]string{"refreshToken": "r"}, expectedStatus: http.StatusNoContent},
		{name: "logout - missing token", principal: userPrincipal(), method: http.MethodPost, url: "/v1/auth/logout", body: map[string]string{}, expectedStatus: http.StatusBadRequest},
		{name: "list sessions", principal: userPrincipal(), method: http.MethodGet, url: "/v1/auth/sessions", expectedStatus: http.StatusOK},
		{name: "revoke own session", principal: userPrincipal(), method: http.MethodDelete, url: "/v1/auth/sessions/ses-1", expectedStatus: http.StatusNoContent},
		{name: "revoke unknown session", principal: userPrincipal(), method: http.MethodDelete, url: "/v1/auth/sessions/ses-9", expectedStatus: http.StatusNotFound},
		{name: "mfa setup", principal: userPrincipal(), method: http.MethodPost, url: "/v1/auth/mfa/setup", expectedStatus: http.StatusOK},
		{name: "mfa enable", principal: userPrincipal(), method: http.MethodPost, url: "/v1/auth/mfa/enable", body: map[string]string{"code": "123456"}, expectedStatus: http.StatusOK},
		{name: "mfa disable when not enabled", principal: userPrincipal(), method: http.MethodPost, url: "/v1/auth/mfa/disable", body: map[string]string{"code": "123456"}, expectedStatus: http.StatusConflict},
		{name: "api key principal rejected", principal: &middleware.Principal{AccountID: "acc-1", APIKeyID: "key-1"}, method: http.MethodGet, url: "/v1/auth/sessions", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(cmds, qrys, tt.principal)
			w := authDoRequest(router, tt.method, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListSessions_MarksCurrent(t *testing.T) {
	var got cqrs.ListSessionsQuery
	qrys := &mockSessionQuerier{listFn: func(q cqrs.ListSessionsQuery) ([]models.SessionView, error) {
		got = q
		return []models.SessionView{{ID: "ses-1", Current: true}, {ID: "ses-2"}}, nil
	}}
	router := newAuthTestRouter(&mockAuthCommander{}, qrys, userPrincipal())

	w := authDoRequest(router, http.MethodGet, "/v1/auth/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, cqrs.ListSessionsQuery{AccountID: "acc-1", UserID: "usr-1", CurrentSessionID: "ses-1"}, got)

	var views []models.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.True(t, views[0].Current)
}

func TestLogin_PassesClientMetadata(t *testing.T) {
	var got cqrs.LoginCommand
	cmds := &mockAuthCommander{loginFn: func(cmd cqrs.LoginCommand) (*command.LoginResult, error) {
		got = cmd
		return &command.LoginResult{TokenPair: tokenPair()}, nil
	}}
	router := newAuthTestRouter(cmds, &mockSessionQuerier{}, nil)

	b, _ := json.Marshal(map[string]string{"accountSlug": "acme", "email": "alice@acme.io", "password": "x"})
	req, _ := http.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "console/1.0")
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "console/1.0", got.UserAgent)
	require.Equal(t, "203.0.113.7", got.IP)
}
