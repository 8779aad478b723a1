package config

import (
	"strings"
	"time"
)

const (
	stripeSecretKeyVar     = "STRIPE_SECRET_KEY"
	providerTimeoutVar     = "STRIPE_TIMEOUT_SECONDS"
	successPathVar         = "CHECKOUT_SUCCESS_PATH"
	cancelPathVar          = "CHECKOUT_CANCEL_PATH"
	priceEnvVarPrefix      = "STRIPE_PRICE_"
	tierSingle             = "single"
	tierDrift              = "drift"
	defaultProviderTimeout = 10
)

type Checkout struct{}

var _ CheckoutConfig = Checkout{}

func (Checkout) GetStripeSecretKey() string {
	return GetEnv(stripeSecretKeyVar, "")
}

// GetPriceID returns the Stripe price for a tier, read from STRIPE_PRICE_<TIER>.
func (Checkout) GetPriceID(tier string) string {
	return GetEnv(priceEnvVarPrefix+strings.ToUpper(tier), "")
}

func (Checkout) GetTiers() []string {
	return []string{tierSingle, tierDrift}
}

func (Checkout) GetProviderTimeout() time.Duration {
	return time.Duration(GetEnvInt(providerTimeoutVar, defaultProviderTimeout)) * time.Second
}

func (Checkout) GetSuccessPath() string {
	return GetEnv(successPathVar, "/success.html")
}

func (Checkout) GetCancelPath() string {
	return GetEnv(cancelPathVar, "/token-booth.html")
}
