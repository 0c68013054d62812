package provider

import (
	"context"
	"fmt"

	"github.com/sahayog/donorpay/infra/logger"
)

// DonationService routes validated donation contexts to the selected
// provider adapter. Each call is independent and stateless: mode and
// settings are resolved fresh, inputs are received by value and a fresh
// result is returned, so concurrent calls never interfere.
type DonationService struct {
	store    SettingsStore
	registry *Registry
}

// NewDonationService creates a donation service. A nil registry falls back
// to the default registry; a nil store falls back to default settings.
func NewDonationService(store SettingsStore, registry *Registry) *DonationService {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &DonationService{
		store:    store,
		registry: registry,
	}
}

// StartDonation validates the donation context, resolves mode and settings,
// and dispatches to the requested provider. An empty provider selects the
// configured primary. Validation failures are reported before any adapter
// or network touch.
func (s *DonationService) StartDonation(ctx context.Context, donation DonationContext, p Provider) (*InitiationResult, error) {
	mode := CurrentMode()
	settings := LoadSettings(s.store)

	if p == "" {
		p = settings.PrimaryProvider
	}
	if _, err := ParseProvider(string(p)); err != nil {
		return nil, err
	}

	if !s.isSupported(settings, mode, p) {
		return nil, NewConfigError(p, fmt.Sprintf("provider %s is not enabled or not configured for %s mode", p, mode))
	}

	if err := s.validateDonation(donation, settings, p); err != nil {
		return nil, err
	}

	adapter, err := s.registry.CreateProvider(p)
	if err != nil {
		return nil, err
	}
	if err := adapter.Initialize(ProviderEnvConfig(p)); err != nil {
		return nil, err
	}

	result, err := adapter.StartDonation(ctx, donation, mode)
	if err != nil {
		return nil, err
	}

	LogPaymentEvent("donation initiated", map[string]any{
		"donationId": donation.ID,
		"provider":   p.String(),
		"mode":       mode.String(),
		"amount":     donation.Amount,
		"currency":   donation.Currency.String(),
		"reference":  result.ReferenceID,
	}, logger.LevelInfo)

	return result, nil
}

// VerifyDonation checks a previously initiated donation with its provider.
func (s *DonationService) VerifyDonation(ctx context.Context, p Provider, req VerificationRequest) (*VerificationResult, error) {
	if _, err := ParseProvider(string(p)); err != nil {
		return nil, err
	}

	mode := CurrentMode()

	adapter, err := s.registry.CreateProvider(p)
	if err != nil {
		return nil, err
	}
	if err := adapter.Initialize(ProviderEnvConfig(p)); err != nil {
		return nil, err
	}

	return adapter.VerifyDonation(ctx, req, mode)
}

func (s *DonationService) isSupported(settings PaymentSettings, mode PaymentMode, p Provider) bool {
	for _, supported := range SupportedProviders(settings, mode) {
		if supported == p {
			return true
		}
	}
	return false
}

// validateDonation rejects bad input before any adapter is constructed.
func (s *DonationService) validateDonation(donation DonationContext, settings PaymentSettings, p Provider) error {
	if donation.ID == "" {
		return NewValidationError(p, "donation id is required")
	}
	if res := ValidateAmount(donation.Amount, donation.Currency); !res.Valid {
		return NewValidationError(p, res.Error)
	}
	if res := ValidateName(donation.DonorName); !res.Valid {
		return NewValidationError(p, res.Error)
	}
	if res := ValidateEmail(donation.DonorEmail); !res.Valid {
		return NewValidationError(p, res.Error)
	}
	if res := ValidatePhone(donation.DonorPhone); !res.Valid {
		return NewValidationError(p, res.Error)
	}

	if want := CompatibleCurrency(p); donation.Currency != want {
		return NewValidationError(p, fmt.Sprintf("provider %s accepts %s donations only", p, want))
	}

	if donation.Recurring {
		if !settings.RecurringAllowed {
			return NewValidationError(p, "recurring donations are disabled")
		}
		if p != ProviderStripe {
			return NewValidationError(p, "recurring donations require card checkout")
		}
	}

	return nil
}
