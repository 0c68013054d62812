package provider

import (
	"context"
	"testing"
)

type stubProvider struct {
	initConfig map[string]string
}

func (s *stubProvider) Initialize(config map[string]string) error {
	s.initConfig = config
	return nil
}

func (s *stubProvider) StartDonation(ctx context.Context, donation DonationContext, mode PaymentMode) (*InitiationResult, error) {
	return &InitiationResult{RedirectURL: "https://example.com/pay", ReferenceID: "stub-ref"}, nil
}

func (s *stubProvider) VerifyDonation(ctx context.Context, req VerificationRequest, mode PaymentMode) (*VerificationResult, error) {
	return &VerificationResult{Success: true}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(ProviderKhalti, func() DonationProvider { return &stubProvider{} })

	factory, err := registry.Get(ProviderKhalti)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if factory == nil {
		t.Fatal("Get returned nil factory")
	}

	if _, err := registry.Get(ProviderStripe); err == nil {
		t.Error("Get on unregistered provider should fail")
	}
}

func TestRegistryCreateProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Register(ProviderEsewa, func() DonationProvider { return &stubProvider{} })

	first, err := registry.CreateProvider(ProviderEsewa)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	second, _ := registry.CreateProvider(ProviderEsewa)

	// Each call gets a fresh instance, never shared state.
	if first == second {
		t.Error("CreateProvider returned the same instance twice")
	}
}

func TestRegistryRegisteredProviders(t *testing.T) {
	registry := NewRegistry()
	if got := registry.RegisteredProviders(); len(got) != 0 {
		t.Errorf("fresh registry lists %v", got)
	}

	registry.Register(ProviderKhalti, func() DonationProvider { return &stubProvider{} })
	registry.Register(ProviderStripe, func() DonationProvider { return &stubProvider{} })

	got := registry.RegisteredProviders()
	if len(got) != 2 {
		t.Errorf("RegisteredProviders() = %v, want 2 entries", got)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			registry.Register(ProviderKhalti, func() DonationProvider { return &stubProvider{} })
		}
	}()
	for i := 0; i < 100; i++ {
		registry.RegisteredProviders()
		registry.Get(ProviderKhalti)
	}
	<-done
}
