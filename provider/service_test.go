package provider

import (
	"context"
	"testing"
)

type recordingProvider struct {
	stubProvider
	startCalls  int
	verifyCalls int
	mode        PaymentMode
}

func (r *recordingProvider) StartDonation(ctx context.Context, donation DonationContext, mode PaymentMode) (*InitiationResult, error) {
	r.startCalls++
	r.mode = mode
	return &InitiationResult{RedirectURL: "https://example.com/pay/" + donation.ID, ReferenceID: "ref-" + donation.ID}, nil
}

func (r *recordingProvider) VerifyDonation(ctx context.Context, req VerificationRequest, mode PaymentMode) (*VerificationResult, error) {
	r.verifyCalls++
	return &VerificationResult{Success: true}, nil
}

func newTestService(t *testing.T, adapter *recordingProvider) *DonationService {
	t.Helper()
	t.Setenv(EnvPaymentMode, "mock")

	registry := NewRegistry()
	factory := func() DonationProvider { return adapter }
	for _, p := range AllProviders() {
		registry.Register(p, factory)
	}
	return NewDonationService(nil, registry)
}

func validDonation() DonationContext {
	return DonationContext{
		ID:         "don_100",
		Amount:     500,
		Currency:   CurrencyNPR,
		DonorName:  "Asha Tamang",
		DonorEmail: "asha@example.org",
	}
}

func TestStartDonationDispatches(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	result, err := svc.StartDonation(context.Background(), validDonation(), ProviderKhalti)
	if err != nil {
		t.Fatalf("StartDonation: %v", err)
	}
	if adapter.startCalls != 1 {
		t.Errorf("startCalls = %d", adapter.startCalls)
	}
	if adapter.mode != ModeMock {
		t.Errorf("mode = %q, want mock", adapter.mode)
	}
	if result.RedirectURL == "" || result.ReferenceID == "" {
		t.Errorf("result = %+v", result)
	}
}

// An empty provider routes to the configured primary.
func TestStartDonationDefaultsToPrimary(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	// Default primary is Khalti, which takes NPR.
	if _, err := svc.StartDonation(context.Background(), validDonation(), ""); err != nil {
		t.Fatalf("StartDonation with empty provider: %v", err)
	}
	if adapter.startCalls != 1 {
		t.Errorf("startCalls = %d", adapter.startCalls)
	}
}

func TestStartDonationRejectsUnknownProvider(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	if _, err := svc.StartDonation(context.Background(), validDonation(), "paypal"); err == nil {
		t.Fatal("unknown provider accepted")
	}
	if adapter.startCalls != 0 {
		t.Errorf("adapter touched %d times", adapter.startCalls)
	}
}

// Validation failures must surface before the adapter is touched.
func TestStartDonationValidatesFirst(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DonationContext)
	}{
		{"missing id", func(d *DonationContext) { d.ID = "" }},
		{"amount below floor", func(d *DonationContext) { d.Amount = 9.99 }},
		{"amount above ceiling", func(d *DonationContext) { d.Amount = 1000001 }},
		{"bad name", func(d *DonationContext) { d.DonorName = "<script>" }},
		{"bad email", func(d *DonationContext) { d.DonorEmail = "not-an-email" }},
		{"bad phone", func(d *DonationContext) { d.DonorPhone = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &recordingProvider{}
			svc := newTestService(t, adapter)

			donation := validDonation()
			tt.mutate(&donation)

			_, err := svc.StartDonation(context.Background(), donation, ProviderKhalti)
			if err == nil {
				t.Fatal("invalid donation accepted")
			}
			pe, ok := AsProviderError(err)
			if !ok || pe.Kind != ErrKindValidation {
				t.Errorf("error = %v, want validation kind", err)
			}
			if adapter.startCalls != 0 {
				t.Errorf("adapter touched %d times", adapter.startCalls)
			}
		})
	}
}

func TestStartDonationCurrencyMismatch(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	donation := validDonation()
	donation.Currency = CurrencyUSD
	donation.Amount = 25

	_, err := svc.StartDonation(context.Background(), donation, ProviderKhalti)
	if err == nil {
		t.Fatal("USD donation to khalti accepted")
	}
	pe, ok := AsProviderError(err)
	if !ok || pe.Kind != ErrKindValidation {
		t.Errorf("error = %v, want validation kind", err)
	}
}

func TestStartDonationRecurringPolicy(t *testing.T) {
	t.Setenv(EnvPaymentMode, "mock")

	registry := NewRegistry()
	adapter := &recordingProvider{}
	for _, p := range AllProviders() {
		registry.Register(p, func() DonationProvider { return adapter })
	}

	t.Run("rejected when disabled", func(t *testing.T) {
		svc := NewDonationService(nil, registry)

		donation := validDonation()
		donation.Currency = CurrencyUSD
		donation.Amount = 25
		donation.Recurring = true

		if _, err := svc.StartDonation(context.Background(), donation, ProviderStripe); err == nil {
			t.Fatal("recurring accepted while globally disabled")
		}
	})

	t.Run("card checkout only", func(t *testing.T) {
		store := &fakeSettingsStore{settings: &PaymentSettings{
			EnabledProviders: AllProviders(),
			PrimaryProvider:  ProviderKhalti,
			DefaultCurrency:  CurrencyNPR,
			RecurringAllowed: true,
		}}
		svc := NewDonationService(store, registry)

		donation := validDonation()
		donation.Recurring = true

		if _, err := svc.StartDonation(context.Background(), donation, ProviderKhalti); err == nil {
			t.Fatal("recurring wallet donation accepted")
		}

		donation.Currency = CurrencyUSD
		donation.Amount = 25
		if _, err := svc.StartDonation(context.Background(), donation, ProviderStripe); err != nil {
			t.Fatalf("recurring card donation rejected: %v", err)
		}
	})
}

func TestStartDonationDisabledProvider(t *testing.T) {
	t.Setenv(EnvPaymentMode, "mock")

	registry := NewRegistry()
	adapter := &recordingProvider{}
	for _, p := range AllProviders() {
		registry.Register(p, func() DonationProvider { return adapter })
	}

	store := &fakeSettingsStore{settings: &PaymentSettings{
		EnabledProviders: []Provider{ProviderKhalti},
		PrimaryProvider:  ProviderKhalti,
		DefaultCurrency:  CurrencyNPR,
	}}
	svc := NewDonationService(store, registry)

	donation := validDonation()
	_, err := svc.StartDonation(context.Background(), donation, ProviderEsewa)
	if err == nil {
		t.Fatal("disabled provider accepted")
	}
	pe, ok := AsProviderError(err)
	if !ok || pe.Kind != ErrKindConfig {
		t.Errorf("error = %v, want config kind", err)
	}
	if adapter.startCalls != 0 {
		t.Errorf("adapter touched %d times", adapter.startCalls)
	}
}

// In live mode an enabled provider without secrets is excluded from routing.
func TestStartDonationLiveCapabilityGate(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	t.Setenv(EnvPaymentMode, "live")
	t.Setenv(EnvKhaltiSecretKey, "")
	t.Setenv(EnvKhaltiBaseURL, "")

	_, err := svc.StartDonation(context.Background(), validDonation(), ProviderKhalti)
	if err == nil {
		t.Fatal("unconfigured live provider accepted")
	}
	pe, ok := AsProviderError(err)
	if !ok || pe.Kind != ErrKindConfig {
		t.Errorf("error = %v, want config kind", err)
	}
}

func TestVerifyDonation(t *testing.T) {
	adapter := &recordingProvider{}
	svc := newTestService(t, adapter)

	result, err := svc.VerifyDonation(context.Background(), ProviderKhalti, VerificationRequest{Reference: "pidx_1"})
	if err != nil {
		t.Fatalf("VerifyDonation: %v", err)
	}
	if !result.Success || adapter.verifyCalls != 1 {
		t.Errorf("result = %+v, verifyCalls = %d", result, adapter.verifyCalls)
	}

	if _, err := svc.VerifyDonation(context.Background(), "paypal", VerificationRequest{Reference: "x"}); err == nil {
		t.Error("unknown provider accepted")
	}
}
