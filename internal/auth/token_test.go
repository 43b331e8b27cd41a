package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign("65f1a2b3c4d5e6f708192a3b")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "65f1a2b3c4d5e6f708192a3b", claims.UserID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("secret-a").Sign("user-1")
	require.NoError(t, err)

	_, err = NewJWT("secret-b").Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewJWT("secret").Parse("not.a.token")
	assert.Error(t, err)
}

func TestSetCookie(t *testing.T) {
	j := NewJWT("test-secret")
	rec := httptest.NewRecorder()

	require.NoError(t, j.SetCookie(rec, "user-1"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Greater(t, c.MaxAge, 0)

	claims, err := j.Parse(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
