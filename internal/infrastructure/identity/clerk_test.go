package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/edemy-api/internal/domain"
)

func newKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestClerk_Verify(t *testing.T) {
	key, pub := newKey(t)
	c, err := NewClerk(Config{APIURL: "http://unused", JWTKey: pub})
	require.NoError(t, err)

	token := sign(t, key, jwt.MapClaims{
		"sub":        "user_1",
		"exp":        time.Now().Add(time.Minute).Unix(),
		"first_name": "Ada",
		"email":      "ada@example.com",
		"metadata":   map[string]string{"role": "educator"},
	})
	id, err := c.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", id.UserID)
	assert.Equal(t, "Ada", id.Name)
	assert.True(t, id.IsEducator())

	var aerr *domain.AuthorizationError

	expired := sign(t, key, jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err = c.Verify(expired)
	require.ErrorAs(t, err, &aerr)
	assert.False(t, aerr.Authenticated)

	other, _ := newKey(t)
	forged := sign(t, other, jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(time.Minute).Unix()})
	_, err = c.Verify(forged)
	assert.ErrorAs(t, err, &aerr)

	noSub := sign(t, key, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	_, err = c.Verify(noSub)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = c.Verify("garbage")
	assert.ErrorAs(t, err, &aerr)
}

func TestClerk_GetUserAndSetRole(t *testing.T) {
	_, pub := newKey(t)
	role := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/users/user_1":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":              "user_1",
				"first_name":      "Ada",
				"last_name":       "Lovelace",
				"image_url":       "https://img/ada.png",
				"email_addresses": []map[string]string{{"email_address": "ada@example.com"}},
				"public_metadata": map[string]string{"role": role},
			})
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/users/user_1/metadata":
			var body struct {
				PublicMetadata map[string]string `json:"public_metadata"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			role = body.PublicMetadata["role"]
			_, _ = w.Write([]byte(`{"id":"user_1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewClerk(Config{SecretKey: "sk_test", APIURL: srv.URL, JWTKey: pub})
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", id.Name)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.False(t, id.IsEducator())

	require.NoError(t, c.SetRole(ctx, "user_1", domain.RoleEducator))

	// the role is read again from the provider, never cached
	id, err = c.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, id.IsEducator())

	_, err = c.GetUser(ctx, "user_2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, c.SetRole(ctx, "user_2", domain.RoleEducator), domain.ErrUserNotFound)
}
