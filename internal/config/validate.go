package config

import (
	"fmt"
	"net/url"
	"strings"
)

const minSecretLength = 32

// Validate checks that everything the pass flow depends on is present and
// well formed. The server refuses to start when it returns an error.
func Validate(c Config) error {
	var problems []string

	if len(c.GetPassSigningSecret()) < minSecretLength {
		problems = append(problems, fmt.Sprintf("%s must be at least %d characters", passSigningSecretVar, minSecretLength))
	}
	if c.GetStripeSecretKey() == "" {
		problems = append(problems, stripeSecretKeyVar+" is required")
	}

	siteURL, err := url.Parse(c.GetSiteURL())
	if c.GetSiteURL() == "" || err != nil || siteURL.Scheme == "" || siteURL.Host == "" {
		problems = append(problems, siteURLVar+" must be an absolute URL")
	}

	for _, tier := range c.GetTiers() {
		if c.GetPriceID(tier) == "" {
			problems = append(problems, priceEnvVarPrefix+strings.ToUpper(tier)+" is required")
		}
	}

	if c.GetDefaultPassMinutes() <= 0 {
		problems = append(problems, defaultPassMinutesVar+" must be positive")
	}
	if !strings.HasPrefix(c.GetSuccessPath(), "/") || !strings.HasPrefix(c.GetCancelPath(), "/") {
		problems = append(problems, "checkout success and cancel paths must be site relative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
