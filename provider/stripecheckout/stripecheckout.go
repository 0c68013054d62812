package stripecheckout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/sahayog/donorpay/infra/config"
	"github.com/sahayog/donorpay/infra/logger"
	"github.com/sahayog/donorpay/provider"
)

const (
	// MockSessionPrefix is the shape of mock-generated session ids. The
	// donation id is recoverable from the suffix.
	MockSessionPrefix = "cs_test_mock_"

	donationProductName = "Monthly donation"
)

// CheckoutProvider implements provider.DonationProvider for Stripe Checkout.
// The API client is constructed explicitly and can be replaced through
// SetClient, so the composition root owns its lifecycle and tests can
// substitute a fake backend.
type CheckoutProvider struct {
	secretKey  string
	successURL string
	cancelURL  string
	client     *client.API
}

// NewProvider creates a new Stripe Checkout donation provider
func NewProvider() provider.DonationProvider {
	return &CheckoutProvider{}
}

// Initialize stores the Stripe configuration. A missing secret key is not an
// error here: mock mode must work with no secrets, and live paths reject the
// missing key before any network call.
func (p *CheckoutProvider) Initialize(conf map[string]string) error {
	p.secretKey = conf["secretKey"]

	siteBaseURL := config.GetAppConfig().SiteBaseURL
	p.successURL = conf["successURL"]
	if p.successURL == "" {
		p.successURL = siteBaseURL + "/donate/thanks"
	}
	p.cancelURL = conf["cancelURL"]
	if p.cancelURL == "" {
		p.cancelURL = siteBaseURL + "/donate/cancelled"
	}

	if p.secretKey != "" && p.client == nil {
		api := &client.API{}
		api.Init(p.secretKey, nil)
		p.client = api
	}

	return nil
}

// SetClient injects a pre-built Stripe API client.
func (p *CheckoutProvider) SetClient(api *client.API) {
	p.client = api
}

// StartDonation creates a Checkout session (or its mock equivalent) and
// returns the redirect URL plus the session id.
func (p *CheckoutProvider) StartDonation(ctx context.Context, donation provider.DonationContext, mode provider.PaymentMode) (*provider.InitiationResult, error) {
	switch mode {
	case provider.ModeMock:
		return p.startMock(donation), nil
	case provider.ModeLive:
		return p.startLive(ctx, donation)
	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

// startMock fabricates a deterministic session without any network call.
func (p *CheckoutProvider) startMock(donation provider.DonationContext) *provider.InitiationResult {
	sessionID := MockSessionPrefix + donation.ID

	provider.LogPaymentEvent("stripe mock session created", map[string]any{
		"donationId": donation.ID,
		"provider":   provider.ProviderStripe.String(),
		"sessionId":  sessionID,
	}, logger.LevelDebug)

	return &provider.InitiationResult{
		RedirectURL: fmt.Sprintf("%s?session_id=%s&mock=1", p.successURL, sessionID),
		ReferenceID: sessionID,
	}
}

func (p *CheckoutProvider) startLive(ctx context.Context, donation provider.DonationContext) (*provider.InitiationResult, error) {
	if strings.TrimSpace(p.secretKey) == "" || p.client == nil {
		return nil, provider.NewConfigError(provider.ProviderStripe, "secret key is not configured")
	}

	amountMinor := provider.MinorUnits(donation.Amount)
	currency := strings.ToLower(donation.Currency.String())

	params := &stripe.CheckoutSessionParams{
		ClientReferenceID: stripe.String(donation.ID),
		CustomerEmail:     stripe.String(donation.DonorEmail),
		SuccessURL:        stripe.String(p.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(p.cancelURL),
	}
	params.Context = ctx

	if donation.Recurring {
		// Subscription checkout needs a product and a recurring price
		// created first, in that order.
		priceID, err := p.createRecurringPrice(ctx, donation, amountMinor, currency)
		if err != nil {
			return nil, err
		}

		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(amountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Donation"),
				},
			},
			Quantity: stripe.Int64(1),
		}}
	}

	sess, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	if sess.URL == "" {
		return nil, provider.NewMalformedResponseError(provider.ProviderStripe, "url")
	}
	if sess.ID == "" {
		return nil, provider.NewMalformedResponseError(provider.ProviderStripe, "id")
	}

	provider.LogPaymentEvent("stripe session created", map[string]any{
		"donationId": donation.ID,
		"provider":   provider.ProviderStripe.String(),
		"sessionId":  sess.ID,
		"recurring":  donation.Recurring,
	}, logger.LevelInfo)

	return &provider.InitiationResult{
		RedirectURL: sess.URL,
		ReferenceID: sess.ID,
	}, nil
}

// createRecurringPrice creates the product and monthly price backing a
// subscription-mode session. The donation id rides both objects' metadata.
func (p *CheckoutProvider) createRecurringPrice(ctx context.Context, donation provider.DonationContext, amountMinor int64, currency string) (string, error) {
	productParams := &stripe.ProductParams{
		Name: stripe.String(donationProductName),
		Metadata: map[string]string{
			"donation_id": donation.ID,
		},
	}
	productParams.Context = ctx

	product, err := p.client.Products.New(productParams)
	if err != nil {
		return "", mapStripeError(err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(amountMinor),
		Currency:   stripe.String(currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
		Metadata: map[string]string{
			"donation_id": donation.ID,
		},
	}
	priceParams.Context = ctx

	price, err := p.client.Prices.New(priceParams)
	if err != nil {
		return "", mapStripeError(err)
	}

	return price.ID, nil
}

// VerifyDonation retrieves a Checkout session and reports whether it
// completed. Session-not-found maps to a 404-class result, any other failure
// to a 500-class result carrying the underlying message.
func (p *CheckoutProvider) VerifyDonation(ctx context.Context, req provider.VerificationRequest, mode provider.PaymentMode) (*provider.VerificationResult, error) {
	switch mode {
	case provider.ModeMock:
		return p.verifyMock(req.Reference), nil
	case provider.ModeLive:
		return p.verifyLive(ctx, req.Reference)
	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

// VerifySession is a convenience wrapper matching the card-provider
// verification contract.
func (p *CheckoutProvider) VerifySession(ctx context.Context, sessionID string, mode provider.PaymentMode) (*provider.VerificationResult, error) {
	return p.VerifyDonation(ctx, provider.VerificationRequest{Reference: sessionID}, mode)
}

// verifyMock accepts only mock-generated session ids and fabricates a
// complete/paid session embedding the original donation id.
func (p *CheckoutProvider) verifyMock(sessionID string) *provider.VerificationResult {
	donationID := strings.TrimPrefix(sessionID, MockSessionPrefix)
	if donationID == sessionID || donationID == "" {
		return &provider.VerificationResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("unrecognized mock session id: %s", sessionID),
			StatusCode:   404,
		}
	}

	return &provider.VerificationResult{
		Success: true,
		Session: map[string]any{
			"id":                  sessionID,
			"client_reference_id": donationID,
			"status":              "complete",
			"payment_status":      "paid",
		},
	}
}

func (p *CheckoutProvider) verifyLive(ctx context.Context, sessionID string) (*provider.VerificationResult, error) {
	if strings.TrimSpace(p.secretKey) == "" || p.client == nil {
		return nil, provider.NewConfigError(provider.ProviderStripe, "secret key is not configured")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	params.AddExpand("subscription")

	sess, err := p.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing {
				return &provider.VerificationResult{
					Success:      false,
					ErrorMessage: "session not found",
					StatusCode:   404,
				}, nil
			}
			return &provider.VerificationResult{
				Success:      false,
				ErrorMessage: stripeErr.Msg,
				StatusCode:   500,
			}, nil
		}
		return &provider.VerificationResult{
			Success:      false,
			ErrorMessage: err.Error(),
			StatusCode:   500,
		}, nil
	}

	return &provider.VerificationResult{
		Success: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			sess.Status == stripe.CheckoutSessionStatusComplete,
		Session: sess,
	}, nil
}

// mapStripeError wraps an SDK error into the provider error taxonomy.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return provider.NewProviderFailure(
			provider.ProviderStripe,
			stripeErr.Msg,
			stripeErr.HTTPStatusCode,
			string(stripeErr.Code),
		)
	}
	return provider.NewNetworkError(provider.ProviderStripe, err)
}
