package tokens

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/agency_site/internal/models"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func testUser() models.User {
	return models.User{
		ID:          5,
		Email:       "bob@x.com",
		Role:        models.RoleManager,
		Permissions: []string{models.PermManageOrders},
	}
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(secret, time.Hour)
	out, err := iss.Issue(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt, 5*time.Second)

	p, exp, err := iss.Parse(out.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 5, p.ID)
	assert.Equal(t, "bob@x.com", p.Email)
	assert.Equal(t, models.RoleManager, p.Role)
	assert.Equal(t, []string{models.PermManageOrders}, p.Permissions)
	assert.Equal(t, out.ID, p.TokenID)
	assert.Equal(t, out.ExpiresAt.Unix(), exp.Unix())
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(secret, time.Hour)
	good, err := iss.Issue(testUser())
	require.NoError(t, err)

	expiredIss := &Issuer{Secret: secret, TTL: time.Minute, Now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expired, err := expiredIss.Issue(testUser())
	require.NoError(t, err)

	otherKey, err := NewIssuer([]byte("another-secret-another-secret!!"), time.Hour).Issue(testUser())
	require.NoError(t, err)

	parts := strings.Split(good.Token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":     "",
		"garbage":   "not.a.token",
		"expired":   expired.Token,
		"other key": otherKey.Token,
		"tampered":  tampered,
		"alg none":  none,
		"no exp":    noExp,
	} {
		_, _, err := iss.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestCookies(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour)
	c := CreateCookie("tok", exp, true)
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	d := DeleteCookie(false)
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
	assert.False(t, d.Secure)
}
