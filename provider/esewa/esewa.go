package esewa

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/sahayog/donorpay/infra/config"
	"github.com/sahayog/donorpay/infra/logger"
	"github.com/sahayog/donorpay/provider"
)

const (
	apiSandboxURL    = "https://uat.esewa.com.np"
	apiProductionURL = "https://esewa.com.np"

	// Endpoints
	endpointMain   = "/epay/main"
	endpointVerify = "/epay/transrec"

	referencePrefix = "ESW-"
)

// EsewaProvider implements provider.DonationProvider for eSewa. The provider
// has no initiate API: building the redirect URL is the whole initiation
// step, so live-mode StartDonation performs zero network calls.
type EsewaProvider struct {
	merchantCode string
	baseURL      string
	successURL   string
	failureURL   string
	httpClient   *provider.HTTPClient
}

// NewProvider creates a new eSewa donation provider
func NewProvider() provider.DonationProvider {
	return &EsewaProvider{}
}

// Initialize stores the eSewa configuration.
func (p *EsewaProvider) Initialize(conf map[string]string) error {
	p.merchantCode = conf["merchantCode"]

	p.baseURL = strings.TrimRight(conf["baseURL"], "/")
	if p.baseURL == "" {
		p.baseURL = apiSandboxURL
	}

	siteBaseURL := config.GetAppConfig().SiteBaseURL
	p.successURL = conf["successURL"]
	if p.successURL == "" {
		p.successURL = siteBaseURL + "/donate/esewa/success"
	}
	p.failureURL = conf["failureURL"]
	if p.failureURL == "" {
		p.failureURL = siteBaseURL + "/donate/esewa/failure"
	}

	p.httpClient = provider.NewHTTPClient(provider.CreateHTTPClientConfig(p.baseURL, 0))

	return nil
}

// ReferenceID derives a deterministic reference id from a donation id; no
// provider round trip is needed to obtain one. The same donation id always
// yields the same reference.
func ReferenceID(donationID string) string {
	sum := sha256.Sum256([]byte(donationID))
	return referencePrefix + strings.ToUpper(hex.EncodeToString(sum[:])[:10])
}

// StartDonation builds the eSewa redirect URL. Initiation and redirect-URL
// construction are the same step for this provider.
func (p *EsewaProvider) StartDonation(ctx context.Context, donation provider.DonationContext, mode provider.PaymentMode) (*provider.InitiationResult, error) {
	refID := ReferenceID(donation.ID)

	switch mode {
	case provider.ModeMock:
		provider.LogPaymentEvent("esewa mock payment created", map[string]any{
			"donationId": donation.ID,
			"provider":   provider.ProviderEsewa.String(),
			"reference":  refID,
		}, logger.LevelDebug)

		return &provider.InitiationResult{
			RedirectURL: fmt.Sprintf("%s?refId=%s&oid=%s&mock=1", p.successURL, refID, url.QueryEscape(donation.ID)),
			ReferenceID: refID,
		}, nil

	case provider.ModeLive:
		if strings.TrimSpace(p.merchantCode) == "" {
			return nil, provider.NewConfigError(provider.ProviderEsewa, "merchant code is not configured")
		}

		// eSewa is amount-string-based, not minor-unit-based: amounts go
		// on the wire as two-decimal strings.
		amount := provider.FormatAmount(donation.Amount)

		q := url.Values{}
		q.Set("amt", amount)
		q.Set("txAmt", "0")
		q.Set("psc", "0")
		q.Set("pdc", "0")
		q.Set("tAmt", amount)
		q.Set("pid", refID)
		q.Set("scd", p.merchantCode)
		q.Set("su", p.successURL)
		q.Set("fu", p.failureURL)

		redirectURL := p.baseURL + endpointMain + "?" + q.Encode()

		provider.LogPaymentEvent("esewa redirect built", map[string]any{
			"donationId": donation.ID,
			"provider":   provider.ProviderEsewa.String(),
			"reference":  refID,
			"amount":     amount,
		}, logger.LevelInfo)

		return &provider.InitiationResult{
			RedirectURL: redirectURL,
			ReferenceID: refID,
		}, nil

	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

// VerifyDonation confirms a completed payment through the transaction
// verification endpoint. The request needs the reference id (pid), the
// transaction id from the return redirect (rid) and the original amount.
func (p *EsewaProvider) VerifyDonation(ctx context.Context, req provider.VerificationRequest, mode provider.PaymentMode) (*provider.VerificationResult, error) {
	switch mode {
	case provider.ModeMock:
		if !strings.HasPrefix(req.Reference, referencePrefix) {
			return &provider.VerificationResult{
				Success:      false,
				ErrorMessage: fmt.Sprintf("unrecognized reference id: %s", req.Reference),
				StatusCode:   404,
			}, nil
		}
		return &provider.VerificationResult{
			Success: true,
			Session: map[string]any{
				"pid":    req.Reference,
				"status": "Success",
			},
		}, nil

	case provider.ModeLive:
		return p.verifyLive(ctx, req)

	default:
		return nil, fmt.Errorf("unknown payment mode: %q", mode)
	}
}

func (p *EsewaProvider) verifyLive(ctx context.Context, req provider.VerificationRequest) (*provider.VerificationResult, error) {
	if strings.TrimSpace(p.merchantCode) == "" {
		return nil, provider.NewConfigError(provider.ProviderEsewa, "merchant code is not configured")
	}
	if req.Reference == "" {
		return nil, provider.NewValidationError(provider.ProviderEsewa, "reference id is required")
	}
	if req.TransactionID == "" {
		return nil, provider.NewValidationError(provider.ProviderEsewa, "transaction id is required")
	}
	if req.Amount <= 0 {
		return nil, provider.NewValidationError(provider.ProviderEsewa, "amount is required")
	}

	resp, err := p.httpClient.SendForm(ctx, &provider.HTTPRequest{
		Method:   "POST",
		Endpoint: endpointVerify,
		FormData: map[string]string{
			"amt": provider.FormatAmount(req.Amount),
			"scd": p.merchantCode,
			"rid": req.TransactionID,
			"pid": req.Reference,
		},
	})
	if err != nil {
		return nil, provider.NewNetworkError(provider.ProviderEsewa, err)
	}

	if !resp.IsSuccess() {
		return &provider.VerificationResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("verification request failed with status %d", resp.StatusCode),
			StatusCode:   resp.StatusCode,
		}, nil
	}

	// The endpoint answers with a small XML body whose response_code element
	// is "Success" or "Failure". Only that element decides the outcome; the
	// surrounding text may mention "successfully" in failure messages.
	code := extractResponseCode(resp.Body)
	if code == "" {
		return nil, provider.NewMalformedResponseError(provider.ProviderEsewa, "response_code")
	}
	success := strings.EqualFold(code, "Success")

	result := &provider.VerificationResult{
		Success: success,
		Session: map[string]any{
			"pid":           req.Reference,
			"rid":           req.TransactionID,
			"response_code": code,
			"raw":           resp.RawBody,
		},
	}
	if !success {
		result.ErrorMessage = fmt.Sprintf("esewa reported transaction status %q", code)
	}
	return result, nil
}

// extractResponseCode pulls the response_code element out of a verification
// body. Tolerates any wrapping element and sibling elements around it.
func extractResponseCode(body []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return ""
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "response_code" {
			continue
		}

		var code string
		if err := decoder.DecodeElement(&code, &start); err != nil {
			return ""
		}
		return strings.TrimSpace(code)
	}
}
