package esewa

import (
	"github.com/sahayog/donorpay/provider"
)

func init() {
	provider.Register(provider.ProviderEsewa, NewProvider)
}
