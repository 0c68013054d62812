package stripecheckout

import (
	"github.com/sahayog/donorpay/provider"
)

func init() {
	provider.Register(provider.ProviderStripe, NewProvider)
}
