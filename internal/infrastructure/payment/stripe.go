package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/waste3d/edemy-api/internal/domain"
)

const signatureTolerance = 5 * time.Minute

var ErrInvalidSignature = domain.NewValidationError(errors.New("invalid webhook signature"))

type Config struct {
	SecretKey     string
	WebhookSecret string
	APIURL        string
}

type Stripe struct {
	client        *resty.Client
	webhookSecret []byte
	now           func() time.Time
}

func NewStripe(cfg Config) *Stripe {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetBasicAuth(cfg.SecretKey, "").
		SetTimeout(15 * time.Second)
	return &Stripe{client: client, webhookSecret: []byte(cfg.WebhookSecret), now: time.Now}
}

type CheckoutRequest struct {
	PurchaseID    uuid.UUID
	CourseTitle   string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession opens a hosted payment page for a single course.
// The purchase id rides along as metadata and returns with the webhook.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	form := map[string]string{
		"mode":                 "payment",
		"success_url":          req.SuccessURL,
		"cancel_url":           req.CancelURL,
		"client_reference_id":  req.PurchaseID.String(),
		"metadata[purchaseId]": req.PurchaseID.String(),

		"payment_intent_data[metadata][purchaseId]":     req.PurchaseID.String(),
		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           strings.ToLower(req.Currency),
		"line_items[0][price_data][unit_amount]":        req.Amount.Shift(2).Round(0).String(),
		"line_items[0][price_data][product_data][name]": req.CourseTitle,
	}
	if req.CustomerEmail != "" {
		form["customer_email"] = req.CustomerEmail
	}

	var session CheckoutSession
	var apiErr stripeError
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.PurchaseID.String()).
		SetFormData(form).
		SetResult(&session).
		SetError(&apiErr).
		Post("/v1/checkout/sessions")
	if err != nil {
		return CheckoutSession{}, errors.Wrap(err, "stripe create checkout session")
	}
	if resp.IsError() {
		return CheckoutSession{}, fmt.Errorf("stripe create checkout session: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if session.URL == "" {
		return CheckoutSession{}, errors.New("stripe create checkout session: empty session url")
	}
	return session, nil
}

type EventKind int

const (
	EventIgnored EventKind = iota
	EventPaid
	EventFailed
)

type Event struct {
	ID         string
	Type       string
	Kind       EventKind
	PurchaseID uuid.UUID
	SessionID  string
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			PaymentStatus     string            `json:"payment_status"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies the Stripe-Signature header against payload and
// classifies the event.
func (s *Stripe) ParseWebhook(payload []byte, sigHeader string) (Event, error) {
	if err := s.verify(payload, sigHeader); err != nil {
		return Event{}, err
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, domain.NewValidationError(errors.Wrap(err, "decode webhook event"))
	}

	out := Event{ID: evt.ID, Type: evt.Type, SessionID: evt.Data.Object.ID}
	switch evt.Type {
	case "checkout.session.completed":
		// async methods report completion before the money arrives
		if evt.Data.Object.PaymentStatus == "paid" || evt.Data.Object.PaymentStatus == "no_payment_required" {
			out.Kind = EventPaid
		}
	case "checkout.session.async_payment_succeeded":
		out.Kind = EventPaid
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		out.Kind = EventFailed
	default:
		return out, nil
	}
	if out.Kind == EventIgnored {
		return out, nil
	}

	ref := evt.Data.Object.Metadata["purchaseId"]
	if ref == "" {
		ref = evt.Data.Object.ClientReferenceID
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return Event{}, domain.NewValidationError(errors.Errorf("event %s carries no purchase id", evt.ID))
	}
	out.PurchaseID = id
	return out, nil
}

func (s *Stripe) verify(payload []byte, header string) error {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if age := s.now().Sub(time.Unix(unix, 0)); age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	expected := Sign(s.webhookSecret, ts, payload)
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the v1 signature Stripe sends for payload at timestamp ts.
func Sign(secret []byte, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader builds a Stripe-Signature header value, used by tests and local tooling.
func SignatureHeader(secret []byte, at time.Time, payload []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, Sign(secret, ts, payload))
}
