package provider

import (
	"context"
	"fmt"

	"github.com/sahayog/donorpay/infra/config"
)

// Provider identifies a payment provider implementation.
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderKhalti Provider = "khalti"
	ProviderEsewa  Provider = "esewa"
)

// AllProviders lists every known provider in a stable order.
func AllProviders() []Provider {
	return []Provider{ProviderStripe, ProviderKhalti, ProviderEsewa}
}

// ParseProvider converts a string into a Provider, rejecting unknown names.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderStripe:
		return ProviderStripe, nil
	case ProviderKhalti:
		return ProviderKhalti, nil
	case ProviderEsewa:
		return ProviderEsewa, nil
	default:
		return "", fmt.Errorf("unknown payment provider: %q", s)
	}
}

func (p Provider) String() string {
	return string(p)
}

// PaymentMode selects between the mock and live execution paths. Mock mode
// performs no network calls and needs no secrets.
type PaymentMode string

const (
	ModeMock PaymentMode = "mock"
	ModeLive PaymentMode = "live"
)

// ParsePaymentMode resolves a mode string. Anything other than the literal
// "live" resolves to mock, so unset or misconfigured environments never
// move money.
func ParsePaymentMode(s string) PaymentMode {
	if s == string(ModeLive) {
		return ModeLive
	}
	return ModeMock
}

func (m PaymentMode) String() string {
	return string(m)
}

// Currency is one of the two currencies this platform accepts donations in.
type Currency string

const (
	CurrencyNPR Currency = "NPR"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency converts a string into a Currency, rejecting unknown codes.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyNPR:
		return CurrencyNPR, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	default:
		return "", fmt.Errorf("unsupported currency: %q", s)
	}
}

func (c Currency) String() string {
	return string(c)
}

// CompatibleCurrency returns the currency a provider settles donations in.
func CompatibleCurrency(p Provider) Currency {
	switch p {
	case ProviderStripe:
		return CurrencyUSD
	case ProviderKhalti, ProviderEsewa:
		return CurrencyNPR
	default:
		return CurrencyNPR
	}
}

// DonationContext is the immutable input to every adapter. It is owned by
// the caller; adapters must not mutate it.
type DonationContext struct {
	ID         string   `json:"id" validate:"required"`
	Amount     float64  `json:"amount" validate:"gt=0"`
	Currency   Currency `json:"currency" validate:"required"`
	DonorName  string   `json:"donorName" validate:"required,min=2,max=255"`
	DonorEmail string   `json:"donorEmail" validate:"required,email,max=255"`
	DonorPhone string   `json:"donorPhone,omitempty"`
	Recurring  bool     `json:"recurring"`
}

// Validate runs the struct-level validation rules.
func (d DonationContext) Validate() error {
	return config.App().Validator.Struct(d)
}

// InitiationResult is the adapter output for a started donation. RedirectURL
// is always a syntactically valid absolute URL and ReferenceID is never empty.
type InitiationResult struct {
	RedirectURL string `json:"redirectUrl"`
	ReferenceID string `json:"referenceId"`
}

// VerificationResult is the outcome of checking a previously initiated
// session. The callback endpoint uses it to decide whether a donation is
// complete.
type VerificationResult struct {
	Success      bool   `json:"success"`
	Session      any    `json:"session,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	StatusCode   int    `json:"statusCode,omitempty"`
}

// VerificationRequest carries the identifiers a provider needs to verify a
// donation. Stripe and Khalti only need Reference (session id / pidx);
// eSewa's verification form additionally needs the transaction id from the
// return redirect and the original amount.
type VerificationRequest struct {
	Reference     string  `json:"reference"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
}

// ValidationResult is the uniform return shape for every validator. It is
// always returned, never panicked.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// DonationProvider is the contract every adapter implements. Implementations
// must branch on mode before touching any network resource and must work in
// mock mode with no secrets configured.
type DonationProvider interface {
	// Initialize stores the provider configuration. Missing secrets are not
	// an error here; live-mode calls check them before any network attempt.
	Initialize(config map[string]string) error

	// StartDonation turns a validated donation context into a redirect URL
	// and a provider reference token.
	StartDonation(ctx context.Context, donation DonationContext, mode PaymentMode) (*InitiationResult, error)

	// VerifyDonation checks a previously initiated donation session.
	VerifyDonation(ctx context.Context, req VerificationRequest, mode PaymentMode) (*VerificationResult, error)
}

// ProviderFactory is a function type that creates a new DonationProvider
type ProviderFactory func() DonationProvider
