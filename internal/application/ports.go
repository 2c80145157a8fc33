package application

import (
	"context"
	"io"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
)

// PaymentGateway opens hosted checkout pages.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error)
}

type ThumbnailStore interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// RoleStore is the identity provider's view of a user, the only source of roles.
type RoleStore interface {
	GetUser(ctx context.Context, userID string) (domain.Identity, error)
	SetRole(ctx context.Context, userID, role string) error
}
