package checkout

import (
	"regexp"
	"strings"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
)

// Metadata keys written to the provider session at creation and read back
// when the buyer returns.
const (
	MetaTier    = "tier"
	MetaPool    = "pool"
	MetaNext    = "next"
	MetaScope   = "scope"
	MetaMinutes = "minutes"
)

var poolPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Intent is what the buyer asked for when starting a checkout.
type Intent struct {
	Tier       string `json:"tier"`
	Pool       string `json:"pool"`
	ReturnPath string `json:"next"`
}

// Tier maps a product tier to the provider price and checkout mode.
type Tier struct {
	Name    string
	PriceID string
	Mode    Mode
	Minutes int // Lifetime of a pass bought on this tier
}

// ValidateReturnPath accepts only same-origin relative paths. "//host" and
// "/\host" are protocol relative in browsers and are refused.
func ValidateReturnPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return errs.ErrInvalidReturnPath
	}
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, `/\`) {
		return errs.ErrInvalidReturnPath
	}
	if strings.ContainsAny(path, "\r\n") {
		return errs.ErrInvalidReturnPath
	}
	return nil
}

// ValidatePool accepts an empty pool (any pool) or a short lowercase slug.
func ValidatePool(pool string) error {
	if pool == "" || poolPattern.MatchString(pool) {
		return nil
	}
	return errs.Wrapf(errs.ErrInvalidRequest, "invalid pool %q", pool)
}
