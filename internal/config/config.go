package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	PassConfig
	CheckoutConfig
	PresenceConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetSiteURL() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type PassConfig interface {
	GetPassSigningSecret() string
	GetPassCookieName() string
	GetDefaultPassMinutes() int
}

type CheckoutConfig interface {
	GetStripeSecretKey() string
	GetPriceID(tier string) string
	GetTiers() []string
	GetProviderTimeout() time.Duration
	GetSuccessPath() string
	GetCancelPath() string
}

type PresenceConfig interface {
	GetRedisURL() string
	GetSessionTTL() time.Duration
	GetActiveWindow() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Pass
	Checkout
	Presence
}

func New() Config {
	return mainConfig{}
}
