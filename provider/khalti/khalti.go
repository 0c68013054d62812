package khalti

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sahayog/donorpay/infra/config"
	"github.com/sahayog/donorpay/infra/logger"
	"github.com/sahayog/donorpay/provider"
)

const (
	// API URLs
	apiSandboxURL    = "https://dev.khalti.com"
	apiProductionURL = "https://a.khalti.com"

	// API Endpoints
	endpointInitiate = "/api/v2/epayment/initiate/"
	endpointLookup   = "/api/v2/epayment/lookup/"

	// Khalti transaction statuses
	statusCompleted    = "Completed"
	statusPending      = "Pending"
	statusExpired      = "Expired"
	statusUserCanceled = "User canceled"

	// Khalti rejects initiations below Rs 10; this floor applies to the
	// paisa amount after conversion, complementary to the generic NPR
	// bound that runs before conversion.
	minAmountPaisa = 1000

	minSecretLength = 10

	mockReferencePrefix = "mock_pidx_"
)

// KhaltiProvider implements provider.DonationProvider for the Khalti
// ePayment API.
type KhaltiProvider struct {
	secretKey  string
	baseURL    string
	returnURL  string
	websiteURL string
	httpClient *provider.HTTPClient
}

// NewProvider creates a new Khalti donation provider
func NewProvider() provider.DonationProvider {
	return &KhaltiProvider{}
}

// Initialize stores the Khalti configuration. The secret key may be absent:
// mock mode never needs it, and live paths reject it before any call.
func (p *KhaltiProvider) Initialize(conf map[string]string) error {
	p.secretKey = conf["secretKey"]

	p.baseURL = strings.TrimRight(conf["baseURL"], "/")
	if p.baseURL == "" {
		p.baseURL = apiSandboxURL
	}

	siteBaseURL := config.GetAppConfig().SiteBaseURL
	p.returnURL = conf["returnURL"]
	if p.returnURL == "" {
		p.returnURL = siteBaseURL + "/donate/khalti/return"
	}
	p.websiteURL = conf["websiteURL"]
	if p.websiteURL == "" {
		p.websiteURL = siteBaseURL
	}

	p.httpClient = provider.NewHTTPClient(provider.CreateHTTPClientConfig(p.baseURL, 0))

	return nil
}

// StartDonation initiates a Khalti payment and returns the payment URL plus
// the pidx reference token.
func (p *KhaltiProvider) StartDonation(ctx context.Context, donation provider.DonationContext, mode provider.PaymentMode) (*provider.InitiationResult, error) {
	// Defense in depth: this adapter is reachable independently of the
	// service layer, so it re-validates rather than trusting caller
	// discipline alone.
	if res := provider.ValidateAmount(donation.Amount, donation.Currency); !res.Valid {
		return nil, provider.NewValidationError(provider.ProviderKhalti, res.Error)
	}
	if res := provider.ValidateEmail(donation.DonorEmail); !res.Valid {
		return nil, provider.NewValidationError(provider.ProviderKhalti, res.Error)
	}
	if res := provider.ValidateName(donation.DonorName); !res.Valid {
		return nil, provider.NewValidationError(provider.ProviderKhalti, res.Error)
	}

	amountPaisa := provider.MinorUnits(donation.Amount)
	if amountPaisa < minAmountPaisa {
		return nil, provider.NewValidationError(provider.ProviderKhalti,
			fmt.Sprintf("khalti requires at least %d paisa, got %d", minAmountPaisa, amountPaisa))
	}

	switch mode {
	case provider.ModeMock:
		return p.startMock(donation), nil
	case provider.ModeLive:
		return p.startLive(ctx, donation, amountPaisa)
	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

// startMock returns a synthetic pidx and return URL without any network
// call. No secret is required.
func (p *KhaltiProvider) startMock(donation provider.DonationContext) *provider.InitiationResult {
	pidx := mockReferencePrefix + donation.ID

	provider.LogPaymentEvent("khalti mock payment created", map[string]any{
		"donationId": donation.ID,
		"provider":   provider.ProviderKhalti.String(),
		"pidx":       pidx,
	}, logger.LevelDebug)

	return &provider.InitiationResult{
		RedirectURL: fmt.Sprintf("%s?pidx=%s&mock=1", p.returnURL, pidx),
		ReferenceID: pidx,
	}
}

func (p *KhaltiProvider) startLive(ctx context.Context, donation provider.DonationContext, amountPaisa int64) (*provider.InitiationResult, error) {
	if err := p.checkSecret(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"return_url":          p.returnURL,
		"website_url":         p.websiteURL,
		"amount":              amountPaisa,
		"purchase_order_id":   donation.ID,
		"purchase_order_name": "Donation",
		"customer_info": map[string]any{
			"name":  donation.DonorName,
			"email": donation.DonorEmail,
			"phone": donation.DonorPhone,
		},
		"amount_breakdown": []map[string]any{
			{"label": "Donation", "amount": amountPaisa},
		},
		"product_details": []map[string]any{
			{
				"identity":    donation.ID,
				"name":        "Donation",
				"total_price": amountPaisa,
				"unit_price":  amountPaisa,
				"quantity":    1,
			},
		},
		// Opaque correlation blob, echoed back on lookup.
		"merchant_extra": fmt.Sprintf(`{"donationId":%q,"currency":%q,"trace":%q}`,
			donation.ID, donation.Currency, uuid.New().String()),
	}

	resp, err := p.httpClient.SendJSON(ctx, &provider.HTTPRequest{
		Method:   "POST",
		Endpoint: endpointInitiate,
		Headers:  map[string]string{"Authorization": "key " + p.secretKey},
		Body:     body,
	})
	if err != nil {
		netErr := provider.NewNetworkError(provider.ProviderKhalti, err)
		p.logFailure(donation.ID, "khalti initiation failed", netErr)
		return nil, netErr
	}

	if !resp.IsSuccess() {
		p.warnOnSandboxSecretMismatch(resp.StatusCode)

		message, code := extractErrorDetails(resp)
		provErr := provider.NewProviderFailure(provider.ProviderKhalti, message, resp.StatusCode, code)
		p.logFailure(donation.ID, "khalti initiation rejected", provErr)
		return nil, provErr
	}

	var initResp struct {
		Pidx       string `json:"pidx"`
		PaymentURL string `json:"payment_url"`
		ExpiresAt  string `json:"expires_at"`
	}
	if err := resp.ParseJSON(&initResp); err != nil {
		return nil, provider.NewMalformedResponseError(provider.ProviderKhalti, "body")
	}

	// A 2xx missing either field is a failure, not a partial success.
	if initResp.PaymentURL == "" {
		return nil, provider.NewMalformedResponseError(provider.ProviderKhalti, "payment_url")
	}
	if initResp.Pidx == "" {
		return nil, provider.NewMalformedResponseError(provider.ProviderKhalti, "pidx")
	}

	provider.LogPaymentEvent("khalti payment initiated", map[string]any{
		"donationId": donation.ID,
		"provider":   provider.ProviderKhalti.String(),
		"pidx":       initResp.Pidx,
		"secretKey":  p.secretKey, // masked by the event logger
	}, logger.LevelInfo)

	return &provider.InitiationResult{
		RedirectURL: initResp.PaymentURL,
		ReferenceID: initResp.Pidx,
	}, nil
}

// VerifyDonation looks up a previously initiated payment by pidx.
func (p *KhaltiProvider) VerifyDonation(ctx context.Context, req provider.VerificationRequest, mode provider.PaymentMode) (*provider.VerificationResult, error) {
	switch mode {
	case provider.ModeMock:
		return p.verifyMock(req.Reference), nil
	case provider.ModeLive:
		return p.verifyLive(ctx, req.Reference)
	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

func (p *KhaltiProvider) verifyMock(pidx string) *provider.VerificationResult {
	donationID := strings.TrimPrefix(pidx, mockReferencePrefix)
	if donationID == pidx || donationID == "" {
		return &provider.VerificationResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("unrecognized mock pidx: %s", pidx),
			StatusCode:   404,
		}
	}

	return &provider.VerificationResult{
		Success: true,
		Session: map[string]any{
			"pidx":              pidx,
			"purchase_order_id": donationID,
			"status":            statusCompleted,
		},
	}
}

func (p *KhaltiProvider) verifyLive(ctx context.Context, pidx string) (*provider.VerificationResult, error) {
	if err := p.checkSecret(); err != nil {
		return nil, err
	}
	if pidx == "" {
		return nil, provider.NewValidationError(provider.ProviderKhalti, "pidx is required")
	}

	resp, err := p.httpClient.SendJSON(ctx, &provider.HTTPRequest{
		Method:   "POST",
		Endpoint: endpointLookup,
		Headers:  map[string]string{"Authorization": "key " + p.secretKey},
		Body:     map[string]string{"pidx": pidx},
	})
	if err != nil {
		return nil, provider.NewNetworkError(provider.ProviderKhalti, err)
	}

	if !resp.IsSuccess() {
		message, _ := extractErrorDetails(resp)
		return &provider.VerificationResult{
			Success:      false,
			ErrorMessage: message,
			StatusCode:   resp.StatusCode,
		}, nil
	}

	var lookup struct {
		Pidx          string `json:"pidx"`
		TotalAmount   int64  `json:"total_amount"`
		Status        string `json:"status"`
		TransactionID string `json:"transaction_id"`
		Refunded      bool   `json:"refunded"`
	}
	if err := resp.ParseJSON(&lookup); err != nil {
		return nil, provider.NewMalformedResponseError(provider.ProviderKhalti, "body")
	}

	result := &provider.VerificationResult{
		Session: lookup,
	}

	switch lookup.Status {
	case statusCompleted:
		result.Success = !lookup.Refunded
	case statusPending, statusExpired, statusUserCanceled:
		result.Success = false
		result.ErrorMessage = fmt.Sprintf("payment status: %s", lookup.Status)
	default:
		result.Success = false
		result.ErrorMessage = fmt.Sprintf("unexpected payment status: %s", lookup.Status)
	}

	return result, nil
}

// checkSecret rejects a missing or clearly malformed secret before any
// network call.
func (p *KhaltiProvider) checkSecret() error {
	secret := strings.TrimSpace(p.secretKey)
	if secret == "" {
		return provider.NewConfigError(provider.ProviderKhalti, "secret key is not configured")
	}
	if len(secret) < minSecretLength {
		return provider.NewConfigError(provider.ProviderKhalti, "secret key looks malformed")
	}
	return nil
}

// sandboxSecretMismatch reports the common misconfiguration of a
// sandbox-style secret pointed at the production base URL.
func (p *KhaltiProvider) sandboxSecretMismatch(statusCode int) bool {
	return statusCode == 401 &&
		strings.HasPrefix(p.secretKey, "test_") &&
		p.baseURL == apiProductionURL
}

// warnOnSandboxSecretMismatch is a usability aid only; the rejection itself
// is still surfaced to the caller.
func (p *KhaltiProvider) warnOnSandboxSecretMismatch(statusCode int) {
	if !p.sandboxSecretMismatch(statusCode) {
		return
	}
	logger.Warn("khalti rejected a test secret key against the production base URL; set KHALTI_BASE_URL to the sandbox host or use a live secret",
		logger.LogContext{Provider: provider.ProviderKhalti.String()})
}

// logFailure logs an adapter failure with the secret masked.
func (p *KhaltiProvider) logFailure(donationID, event string, err error) {
	fields := map[string]any{
		"donationId": donationID,
		"provider":   provider.ProviderKhalti.String(),
		"error":      err.Error(),
		"secretKey":  p.secretKey, // masked by the event logger
	}
	provider.LogPaymentEvent(event, fields, logger.LevelError)
}

// extractErrorDetails pulls the most specific available message out of an
// error response body. Khalti reports either a detail string, an error_key,
// or per-field message arrays.
func extractErrorDetails(resp *provider.HTTPResponse) (message, code string) {
	var parsed map[string]any
	if err := resp.ParseJSON(&parsed); err != nil {
		return truncateBody(resp.RawBody), ""
	}

	if key, ok := parsed["error_key"].(string); ok {
		code = key
	}

	if detail, ok := parsed["detail"].(string); ok && detail != "" {
		return detail, code
	}

	for field, value := range parsed {
		if field == "error_key" || field == "status_code" {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return fmt.Sprintf("%s: %s", field, v), code
			}
		case []any:
			if len(v) > 0 {
				if msg, ok := v[0].(string); ok && msg != "" {
					return fmt.Sprintf("%s: %s", field, msg), code
				}
			}
		}
	}

	return truncateBody(resp.RawBody), code
}

func truncateBody(body string) string {
	if len(body) > 200 {
		return body[:200]
	}
	if body == "" {
		return "provider returned an empty error response"
	}
	return body
}
