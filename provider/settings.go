package provider

import (
	"errors"
	"strings"

	"github.com/sahayog/donorpay/infra/config"
	"github.com/sahayog/donorpay/infra/logger"
)

// SettingsKey is the name the settings record is stored under.
const SettingsKey = "payment_settings"

// Environment variable names consumed by the settings resolver.
const (
	EnvPaymentMode = "PAYMENT_MODE"

	EnvStripeSecretKey   = "STRIPE_SECRET_KEY"
	EnvStripeSuccessURL  = "STRIPE_SUCCESS_URL"
	EnvStripeCancelURL   = "STRIPE_CANCEL_URL"
	EnvKhaltiSecretKey   = "KHALTI_SECRET_KEY"
	EnvKhaltiBaseURL     = "KHALTI_BASE_URL"
	EnvKhaltiReturnURL   = "KHALTI_RETURN_URL"
	EnvEsewaMerchantCode = "ESEWA_MERCHANT_CODE"
	EnvEsewaBaseURL      = "ESEWA_BASE_URL"
	EnvEsewaSuccessURL   = "ESEWA_SUCCESS_URL"
	EnvEsewaFailureURL   = "ESEWA_FAILURE_URL"
)

// PaymentSettings is the persisted payment configuration. It is loaded fresh
// per call and replaced wholesale, never mutated in place.
type PaymentSettings struct {
	EnabledProviders []Provider `json:"enabledProviders"`
	PrimaryProvider  Provider   `json:"primaryProvider"`
	DefaultCurrency  Currency   `json:"defaultCurrency"`
	RecurringAllowed bool       `json:"recurringAllowed"`
}

// IsEnabled reports whether a provider is in the enabled set.
func (s PaymentSettings) IsEnabled(p Provider) bool {
	for _, enabled := range s.EnabledProviders {
		if enabled == p {
			return true
		}
	}
	return false
}

// DefaultSettings returns the hard-coded fallback settings record.
func DefaultSettings() PaymentSettings {
	return PaymentSettings{
		EnabledProviders: AllProviders(),
		PrimaryProvider:  ProviderKhalti,
		DefaultCurrency:  CurrencyNPR,
		RecurringAllowed: false,
	}
}

// CurrentMode resolves the payment mode from the environment. Anything other
// than the literal "live" resolves to mock.
func CurrentMode() PaymentMode {
	return ParsePaymentMode(config.GetEnv(EnvPaymentMode, ""))
}

// IsProviderEnvConfigured reports whether a provider's required secrets and
// URLs are present. Mock mode never depends on secrets, so it is always
// configured there.
func IsProviderEnvConfigured(p Provider, mode PaymentMode) bool {
	if mode == ModeMock {
		return true
	}

	switch p {
	case ProviderStripe:
		return config.GetEnv(EnvStripeSecretKey, "") != ""
	case ProviderKhalti:
		return config.GetEnv(EnvKhaltiSecretKey, "") != "" &&
			config.GetEnv(EnvKhaltiBaseURL, "") != ""
	case ProviderEsewa:
		return config.GetEnv(EnvEsewaMerchantCode, "") != "" &&
			config.GetEnv(EnvEsewaBaseURL, "") != ""
	default:
		return false
	}
}

// SettingsStore reads a named settings record. *config.SettingsStorage
// satisfies it; tests substitute fakes.
type SettingsStore interface {
	LoadSetting(name string, out any) error
}

// LoadSettings reads the persisted settings record and merges it with the
// defaults. A missing or unreadable record falls back to the defaults
// entirely. No caching: repeated calls re-read storage.
func LoadSettings(store SettingsStore) PaymentSettings {
	defaults := DefaultSettings()
	if store == nil {
		return defaults
	}

	var persisted PaymentSettings
	if err := store.LoadSetting(SettingsKey, &persisted); err != nil {
		if !errors.Is(err, config.ErrSettingNotFound) {
			LogPaymentEvent("settings load failed, using defaults", map[string]any{
				"error": err.Error(),
			}, logger.LevelWarn)
		}
		return defaults
	}

	return mergeSettings(persisted, defaults)
}

// mergeSettings fills unset fields of persisted from defaults and guarantees
// by construction that the primary provider is a member of the enabled set.
func mergeSettings(persisted, defaults PaymentSettings) PaymentSettings {
	merged := PaymentSettings{
		EnabledProviders: persisted.EnabledProviders,
		PrimaryProvider:  persisted.PrimaryProvider,
		DefaultCurrency:  persisted.DefaultCurrency,
		RecurringAllowed: persisted.RecurringAllowed,
	}

	if len(merged.EnabledProviders) == 0 {
		merged.EnabledProviders = defaults.EnabledProviders
	} else {
		// Drop unknown names that may have crept into storage.
		known := merged.EnabledProviders[:0:0]
		for _, p := range merged.EnabledProviders {
			if _, err := ParseProvider(string(p)); err == nil {
				known = append(known, p)
			}
		}
		if len(known) == 0 {
			known = defaults.EnabledProviders
		}
		merged.EnabledProviders = known
	}

	if _, err := ParseProvider(string(merged.PrimaryProvider)); err != nil {
		merged.PrimaryProvider = defaults.PrimaryProvider
	}
	if _, err := ParseCurrency(string(merged.DefaultCurrency)); err != nil {
		merged.DefaultCurrency = defaults.DefaultCurrency
	}

	if !merged.IsEnabled(merged.PrimaryProvider) {
		merged.EnabledProviders = append(merged.EnabledProviders, merged.PrimaryProvider)
	}

	return merged
}

// SupportedProviders returns the providers a donation may be routed to. In
// live mode the enabled set is intersected with the env capability check, so
// a provider without valid secrets is silently excluded even when enabled in
// settings. Mock mode returns the enabled set unfiltered so provider
// selection can be tested without real credentials.
func SupportedProviders(settings PaymentSettings, mode PaymentMode) []Provider {
	switch mode {
	case ModeMock:
		return settings.EnabledProviders
	case ModeLive:
		supported := make([]Provider, 0, len(settings.EnabledProviders))
		for _, p := range settings.EnabledProviders {
			if IsProviderEnvConfigured(p, mode) {
				supported = append(supported, p)
			}
		}
		return supported
	default:
		return nil
	}
}

// ProviderEnvConfig assembles the configuration map an adapter's Initialize
// expects, from environment signals. Missing secrets produce empty values
// here; live-mode adapter paths reject them before any network call.
func ProviderEnvConfig(p Provider) map[string]string {
	siteBaseURL := config.GetAppConfig().SiteBaseURL

	switch p {
	case ProviderStripe:
		return map[string]string{
			"secretKey":  config.GetEnv(EnvStripeSecretKey, ""),
			"successURL": config.GetEnv(EnvStripeSuccessURL, siteBaseURL+"/donate/thanks"),
			"cancelURL":  config.GetEnv(EnvStripeCancelURL, siteBaseURL+"/donate/cancelled"),
		}
	case ProviderKhalti:
		return map[string]string{
			"secretKey":  config.GetEnv(EnvKhaltiSecretKey, ""),
			"baseURL":    strings.TrimRight(config.GetEnv(EnvKhaltiBaseURL, ""), "/"),
			"returnURL":  config.GetEnv(EnvKhaltiReturnURL, siteBaseURL+"/donate/khalti/return"),
			"websiteURL": siteBaseURL,
		}
	case ProviderEsewa:
		return map[string]string{
			"merchantCode": config.GetEnv(EnvEsewaMerchantCode, ""),
			"baseURL":      strings.TrimRight(config.GetEnv(EnvEsewaBaseURL, ""), "/"),
			"successURL":   config.GetEnv(EnvEsewaSuccessURL, siteBaseURL+"/donate/esewa/success"),
			"failureURL":   config.GetEnv(EnvEsewaFailureURL, siteBaseURL+"/donate/esewa/failure"),
		}
	default:
		return map[string]string{}
	}
}
