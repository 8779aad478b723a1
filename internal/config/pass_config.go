package config

const (
	passSigningSecretVar  = "PASS_SIGNING_SECRET"
	passCookieNameVar     = "PASS_COOKIE_NAME"
	defaultPassMinutesVar = "PASS_DEFAULT_MINUTES"
)

type Pass struct{}

var _ PassConfig = Pass{}

// GetPassSigningSecret returns the HMAC key for pass tokens. Rotating it
// invalidates every pass already issued.
func (Pass) GetPassSigningSecret() string {
	return GetEnv(passSigningSecretVar, "")
}

func (Pass) GetPassCookieName() string {
	return GetEnv(passCookieNameVar, "reeflux_pass")
}

func (Pass) GetDefaultPassMinutes() int {
	return GetEnvInt(defaultPassMinutesVar, 30)
}
