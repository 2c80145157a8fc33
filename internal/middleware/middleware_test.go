package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeVerifier map[string]domain.Identity

func (f fakeVerifier) Verify(token string) (domain.Identity, error) {
	id, ok := f[token]
	if !ok {
		return domain.Identity{}, &domain.AuthorizationError{Err: errors.New("invalid session token")}
	}
	return id, nil
}

type fakeEnsurer struct{ created []string }

func (f *fakeEnsurer) EnsureUser(_ context.Context, id domain.Identity) (*domain.User, error) {
	if id.UserID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	f.created = append(f.created, id.UserID)
	return &domain.User{ID: id.UserID, Name: "No Name"}, nil
}

type fakeChecker struct{ educators map[string]bool }

func (f fakeChecker) RequireEducator(_ context.Context, userID string) (domain.Identity, error) {
	id := domain.Identity{UserID: userID}
	if f.educators[userID] {
		id.Role = domain.RoleEducator
	}
	return id, domain.RequireEducator(id)
}

type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func do(t *testing.T, r http.Handler, method, path, token string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func newRouter(ensurer *fakeEnsurer) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(logger.NewStdLogger(nil)))
	verifier := fakeVerifier{
		"tok_student":  {UserID: "u1"},
		"tok_educator": {UserID: "edu_1"},
	}
	checker := fakeChecker{educators: map[string]bool{"edu_1": true}}

	authed := r.Group("/", AuthMiddleware(verifier), EnsureUser(ensurer))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": UserFrom(c).ID})
	})
	authed.GET("/educator", RequireEducator(checker), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	ensurer := &fakeEnsurer{}
	r := newRouter(ensurer)

	code, body := do(t, r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Success)
	assert.Equal(t, "User not authenticated", body.Message)

	code, _ = do(t, r, http.MethodGet, "/me", "forged")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, r, http.MethodGet, "/me", "tok_student")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1", body.Message)
	assert.Equal(t, []string{"u1"}, ensurer.created)
}

func TestRequireEducatorMiddleware(t *testing.T) {
	r := newRouter(&fakeEnsurer{})

	code, body := do(t, r, http.MethodGet, "/educator", "tok_student")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Unauthorized Access", body.Message)

	code, _ = do(t, r, http.MethodGet, "/educator", "tok_educator")
	assert.Equal(t, http.StatusOK, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError(errors.New("bad")), http.StatusBadRequest},
		{domain.ErrAlreadyEnrolled, http.StatusBadRequest},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrNotEducator, http.StatusForbidden},
		{domain.ErrNotEnrolled, http.StatusForbidden},
		{errors.Wrap(domain.ErrCourseNotFound, "load"), http.StatusNotFound},
		{domain.NewTransientStoreError(errors.New("deadlock")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.NewStdLogger(nil)))
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: password authentication failed")) })

	code, body := do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, body.Success)
	assert.NotContains(t, body.Message, "password")
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.GET("/ping", NewRateLimiter(client).Limit("ping", 2, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		code, _ := do(t, r, http.MethodGet, "/ping", "")
		require.Equal(t, http.StatusOK, code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	code, _ := do(t, r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, code)
}
