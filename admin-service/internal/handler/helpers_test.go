package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

// ---- helpers ----

func adminPrincipal() *middleware.Principal {
	return &middleware.Principal{
		AccountID:   "acc-1",
		UserID:      "usr-1",
		Email:       "alice@example.com",
		Permissions: models.TenantPermissions(),
	}
}

func principalWith(perms ...string) *middleware.Principal {
	return &middleware.Principal{AccountID: "acc-1", UserID: "usr-1", Permissions: perms}
}

func fakeAuth(p *middleware.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			middleware.SetPrincipal(c, p)
		}
		c.Next()
	}
}

func newTestRouter(p *middleware.Principal, h Routes) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1", fakeAuth(p))
	h.RegisterRoutes(v1)
	return r
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
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

func decodeError(w *httptest.ResponseRecorder) middleware.ErrorResponse {
	var resp middleware.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}
