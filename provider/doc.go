// Package provider defines the donation provider abstraction: the common
// DonationProvider contract, the validation and security kit that runs
// before any network call, the settings resolver that decides mode and
// provider support per call, the error taxonomy, and the registry plus
// DonationService that tie them together.
//
// Adapters live in sub-packages and register themselves with the default
// registry on import. Every adapter branches on the payment mode before
// touching any network resource; mock mode works with no secrets configured.
package provider
