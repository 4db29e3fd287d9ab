package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_SignAndParse(t *testing.T) {
	v := NewVerifier("secret", "commerce")
	token, err := v.Sign(Principal{UserID: 42, Email: "a@b.c", Role: RoleAdmin}, time.Minute)
	require.NoError(t, err)

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = NewVerifier("other", "commerce").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Sign(Principal{UserID: 42}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := NewVerifier("secret", "")

	r := gin.New()
	r.GET("/admin", v.Middleware(), RequireRole(RoleAdmin, RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	customer, err := v.Sign(Principal{UserID: 1, Role: RoleCustomer}, time.Minute)
	require.NoError(t, err)
	admin, err := v.Sign(Principal{UserID: 2, Role: RoleSuperAdmin}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no token", header: "", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "customer", header: "Bearer " + customer, want: http.StatusForbidden},
		{name: "super admin", header: "Bearer " + admin, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
