package identity

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
)

type Config struct {
	SecretKey string
	APIURL    string
	// JWTKey is the PEM encoded public key that signs session tokens.
	JWTKey string
}

// Clerk verifies session tokens locally and talks to the Clerk backend API
// for user records and role metadata.
type Clerk struct {
	client *resty.Client
	key    *rsa.PublicKey
}

func NewClerk(cfg Config) (*Clerk, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(strings.ReplaceAll(cfg.JWTKey, `\n`, "\n")))
	if err != nil {
		return nil, errors.Wrap(err, "parse clerk jwt key")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Clerk{client: client, key: key}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	FirstName string `json:"first_name"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ImageURL  string `json:"image_url"`
	Metadata  struct {
		Role string `json:"role"`
	} `json:"metadata"`
}

// Verify checks a session token and returns the identity it carries.
// The role claim is informational; educator checks fetch it again with GetUser.
func (c *Clerk) Verify(token string) (domain.Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(5*time.Second), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, &domain.AuthorizationError{Err: errors.Wrap(err, "invalid session token")}
	}
	if claims.Subject == "" {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}

	name := claims.FirstName
	if name == "" {
		name = claims.Name
	}
	return domain.Identity{
		UserID:   claims.Subject,
		Role:     claims.Metadata.Role,
		Name:     name,
		Email:    claims.Email,
		ImageURL: claims.ImageURL,
	}, nil
}

type clerkUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

func (u clerkUser) identity() domain.Identity {
	id := domain.Identity{
		UserID:   u.ID,
		Role:     u.PublicMetadata.Role,
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
		ImageURL: u.ImageURL,
	}
	if len(u.EmailAddresses) > 0 {
		id.Email = u.EmailAddresses[0].EmailAddress
	}
	return id
}

// GetUser reads the user from the provider, including the current role.
func (c *Clerk) GetUser(ctx context.Context, userID string) (domain.Identity, error) {
	var user clerkUser
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetResult(&user).
		Get("/v1/users/{id}")
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, "clerk get user")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.Identity{}, domain.ErrUserNotFound
	}
	if resp.IsError() {
		return domain.Identity{}, fmt.Errorf("clerk get user: status %d: %s", resp.StatusCode(), resp.String())
	}
	return user.identity(), nil
}

// SetRole merges role into the user's public metadata.
func (c *Clerk) SetRole(ctx context.Context, userID, role string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetBody(map[string]interface{}{
			"public_metadata": map[string]string{"role": role},
		}).
		Patch("/v1/users/{id}/metadata")
	if err != nil {
		return errors.Wrap(err, "clerk update metadata")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.ErrUserNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("clerk update metadata: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
