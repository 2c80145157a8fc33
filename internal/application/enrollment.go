package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/email"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
	"github.com/waste3d/edemy-api/internal/logger"
)

type EnrollmentConfig struct {
	FrontendURL string
	Currency    string
	Retry       RetryPolicy
}

// EnrollmentUseCase turns confirmed payments into enrollments. A purchase
// moves pending -> paid when the provider confirms it and paid -> completed
// together with the enrollment row, so each payment enrolls at most once.
type EnrollmentUseCase struct {
	courses     *repository.CourseRepository
	users       *repository.UserRepository
	enrollments *repository.EnrollmentRepository
	purchases   *repository.PurchaseRepository
	payments    PaymentGateway
	mailer      email.Sender
	log         logger.Logger
	cfg         EnrollmentConfig
}

func NewEnrollmentUseCase(
	cr *repository.CourseRepository,
	ur *repository.UserRepository,
	er *repository.EnrollmentRepository,
	pr *repository.PurchaseRepository,
	pg PaymentGateway,
	mailer email.Sender,
	log logger.Logger,
	cfg EnrollmentConfig,
) *EnrollmentUseCase {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &EnrollmentUseCase{
		courses:     cr,
		users:       ur,
		enrollments: er,
		purchases:   pr,
		payments:    pg,
		mailer:      mailer,
		log:         log,
		cfg:         cfg,
	}
}

// BeginPurchase records a pending purchase and returns the URL the client
// should be sent to: the provider's checkout page, or the enrollments page
// when the course is free.
func (uc *EnrollmentUseCase) BeginPurchase(ctx context.Context, userID, rawCourseID string) (string, error) {
	courseID, err := parseCourseID(rawCourseID)
	if err != nil {
		return "", err
	}
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if !course.IsPublished {
		return "", domain.ErrCourseNotFound
	}

	enrolled, err := uc.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return "", err
	}
	if enrolled {
		return "", domain.ErrAlreadyEnrolled
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	purchase := &domain.Purchase{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Amount:   course.EffectivePrice(),
		Currency: uc.cfg.Currency,
		Status:   domain.PurchasePending,
		Metadata: datatypes.JSONMap{"courseTitle": course.Title},
	}
	if err := uc.purchases.Create(ctx, purchase); err != nil {
		return "", err
	}

	enrollmentsURL := uc.cfg.FrontendURL + "/loading/my-enrollments"
	if !purchase.Amount.IsPositive() {
		if err := uc.ConfirmPayment(ctx, purchase.ID); err != nil {
			return "", err
		}
		return enrollmentsURL, nil
	}

	session, err := uc.payments.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		PurchaseID:    purchase.ID,
		CourseTitle:   course.Title,
		Amount:        purchase.Amount,
		Currency:      purchase.Currency,
		CustomerEmail: user.Email,
		SuccessURL:    enrollmentsURL,
		CancelURL:     uc.cfg.FrontendURL + "/",
	})
	if err != nil {
		if ferr := uc.FailPayment(ctx, purchase.ID); ferr != nil {
			uc.log.Warn("could not fail purchase after checkout error", ferr)
		}
		return "", errors.Wrap(err, "create checkout session")
	}
	if err := uc.purchases.SetSession(ctx, purchase.ID, session.ID); err != nil {
		return "", err
	}
	return session.URL, nil
}

// ConfirmPayment handles a payment confirmation for the purchase. Repeated
// confirmations are no-ops. It returns once the paid status is stored; a
// failed enrollment write after that is left to the reconciler.
func (uc *EnrollmentUseCase) ConfirmPayment(ctx context.Context, purchaseID uuid.UUID) error {
	p, err := uc.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}

	switch p.Status {
	case domain.PurchaseCompleted:
		return nil
	case domain.PurchasePending, domain.PurchaseFailed:
		// a late confirmation for an expired purchase is still money received
		from := p.Status
		err := uc.cfg.Retry.Do(ctx, func(ctx context.Context) error {
			_, err := uc.purchases.Transition(ctx, p.ID, from, domain.PurchasePaid)
			return err
		})
		if err != nil {
			return err
		}
		// whoever moved it, the purchase is paid now unless another call already completed it
		if p, err = uc.purchases.GetByID(ctx, purchaseID); err != nil {
			return err
		}
		if p.Status != domain.PurchasePaid {
			return nil
		}
	}

	if _, err := uc.complete(ctx, p); err != nil {
		uc.log.Error(fmt.Sprintf("enrollment for paid purchase %s failed, left for reconciliation", p.ID), err)
	}
	return nil
}

// FailPayment marks a pending purchase failed. Other states are left alone.
func (uc *EnrollmentUseCase) FailPayment(ctx context.Context, purchaseID uuid.UUID) error {
	if _, err := uc.purchases.GetByID(ctx, purchaseID); err != nil {
		return err
	}
	return uc.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		_, err := uc.purchases.Transition(ctx, purchaseID, domain.PurchasePending, domain.PurchaseFailed)
		return err
	})
}

// Enroll adds the user to the course and reports whether this call granted
// the access; enrolling twice is not an error. With a purchase id the grant
// also moves that paid purchase to completed in the same transaction, and
// only the call that completes it reports true.
func (uc *EnrollmentUseCase) Enroll(ctx context.Context, userID string, courseID uuid.UUID, purchaseID *uuid.UUID) (bool, error) {
	var granted bool
	err := uc.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		if purchaseID != nil {
			granted, err = uc.purchases.Complete(ctx, &domain.Purchase{ID: *purchaseID, UserID: userID, CourseID: courseID})
			return err
		}
		granted, err = uc.enrollments.Enroll(ctx, &domain.Enrollment{UserID: userID, CourseID: courseID})
		return err
	})
	if err != nil {
		return false, err
	}
	uc.courses.Invalidate(ctx, courseID)
	return granted, nil
}

// complete enrolls the buyer of a paid purchase. Only the call that moves the
// purchase to completed sends the receipt.
func (uc *EnrollmentUseCase) complete(ctx context.Context, p *domain.Purchase) (bool, error) {
	purchaseID := p.ID
	completed, err := uc.Enroll(ctx, p.UserID, p.CourseID, &purchaseID)
	if err != nil {
		return false, err
	}
	if completed {
		uc.sendReceipt(ctx, p)
	}
	return completed, nil
}

func (uc *EnrollmentUseCase) sendReceipt(ctx context.Context, p *domain.Purchase) {
	user, err := uc.users.GetByID(ctx, p.UserID)
	if err != nil {
		uc.log.Warn("receipt skipped: user lookup failed", err)
		return
	}
	if user.Email == "" {
		return
	}
	title, _ := p.Metadata["courseTitle"].(string)
	if title == "" {
		if course, err := uc.courses.GetByID(ctx, p.CourseID); err == nil {
			title = course.Title
		}
	}
	uc.mailer.SendMessages(email.NewReceiptMessage(email.Receipt{
		Name:        user.Name,
		Email:       user.Email,
		CourseTitle: title,
		Amount:      p.Amount,
		Currency:    p.Currency,
	}))
}
