package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oasis/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(expire time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "oasis", ExpireTime: expire})
}

func TestGenerateAndValidate(t *testing.T) {
	s := newService(time.Hour)
	token, err := s.GenerateToken(42, map[string]interface{}{"username": "alice"})
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "alice", claims.Data["username"])
}

func TestGenerateToken_RequiresUser(t *testing.T) {
	_, err := newService(time.Hour).GenerateToken(0, nil)
	assert.Error(t, err)
}

func TestValidateToken_Rejects(t *testing.T) {
	s := newService(time.Hour)
	token, err := s.GenerateToken(1, nil)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "other", Issuer: "oasis", ExpireTime: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	expired, err := newService(-time.Minute).GenerateToken(1, nil)
	require.NoError(t, err)
	_, err = s.ValidateToken(expired)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newService(time.Hour)
	r := gin.New()
	r.GET("/me", s.AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c)})
	})

	token, err := s.GenerateToken(7, nil)
	require.NoError(t, err)

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token abc", http.StatusUnauthorized},
		{"Bearer short", http.StatusUnauthorized},
		{"Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
	}
}
