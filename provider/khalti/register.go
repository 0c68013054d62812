package khalti

import (
	"github.com/sahayog/donorpay/provider"
)

func init() {
	provider.Register(provider.ProviderKhalti, NewProvider)
}
