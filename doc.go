// Package donorpay is a payment-provider abstraction for nonprofit donation
// platforms. It accepts donations through structurally incompatible
// providers behind one uniform interface: Stripe Checkout for card payments
// in USD, and the Khalti and eSewa wallets for NPR.
//
// The library validates and sanitizes donor input before any provider is
// touched, resolves the enabled-provider set and payment mode per call, and
// turns a donation context into a redirect URL plus a provider reference
// token. A process-wide mock mode preserves the structural shape of every
// provider response while requiring zero network capability and zero real
// secrets, so the full selection and initiation path can be exercised in
// tests and staging.
//
// Packages:
//
//   - provider: core types, validation and security kit, settings resolver,
//     registry, shared HTTP client and the DonationService entry point
//   - provider/stripecheckout, provider/khalti, provider/esewa: the adapters
//   - infra/config: environment helpers and the SQLite settings store
//   - infra/logger, infra/opensearch: structured logging with an optional
//     OpenSearch sink
//
// Basic usage:
//
//	store, err := config.NewSettingsStorage("data/settings.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := provider.NewDonationService(store, provider.DefaultRegistry)
//
//	result, err := svc.StartDonation(ctx, provider.DonationContext{
//		ID:         "don_1234",
//		Amount:     500,
//		Currency:   provider.CurrencyNPR,
//		DonorName:  "Asha Tamang",
//		DonorEmail: "asha@example.org",
//	}, provider.ProviderKhalti)
//	if err != nil {
//		// typed: validation, config, provider, network or malformed_response
//	}
//	// redirect the donor to result.RedirectURL
//
// Registering the adapters is a blank import away:
//
//	import (
//		_ "github.com/sahayog/donorpay/provider/esewa"
//		_ "github.com/sahayog/donorpay/provider/khalti"
//		_ "github.com/sahayog/donorpay/provider/stripecheckout"
//	)
package donorpay
