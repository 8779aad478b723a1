package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
	"github.com/JoshuaLakeSexton/Reeflux/pass"
)

const (
	sessionIDPlaceholder   = "{CHECKOUT_SESSION_ID}"
	defaultProviderTimeout = 10 * time.Second
	defaultPassMinutes     = 30
	fallbackReturnPath     = "/"
)

// Settings holds the site-specific parts of the checkout flow.
type Settings struct {
	SiteURL         string          // Public origin, without trailing slash
	CallbackPath    string          // Route the provider returns the buyer to
	CancelPath      string          // Page shown when the buyer abandons checkout
	Tiers           map[string]Tier // Keyed by tier name
	ProviderTimeout time.Duration
}

// Completion is the outcome of a returned checkout.
type Completion struct {
	SessionID     string
	Mode          Mode
	Status        string
	PaymentStatus string
	Tier          string
	Pool          string
	ReturnPath    string
	Claim         pass.AccessClaim
	Lifetime      time.Duration // Remaining lifetime of the claim when it was minted
	Token         string
}

// Service starts checkouts and turns confirmed payments into passes.
type Service struct {
	provider    Provider
	codec       *pass.Codec
	revocations pass.RevocationList
	settings    Settings
}

// NewService initializes a Service with required dependencies.
func NewService(provider Provider, codec *pass.Codec, revocations pass.RevocationList, settings Settings) (*Service, error) {
	if provider == nil {
		return nil, errors.New("[NewService] provider is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if settings.SiteURL == "" {
		return nil, errors.New("[NewService] site URL is required")
	}
	if len(settings.Tiers) == 0 {
		return nil, errors.New("[NewService] at least one tier is required")
	}
	if settings.ProviderTimeout <= 0 {
		settings.ProviderTimeout = defaultProviderTimeout
	}
	settings.SiteURL = strings.TrimRight(settings.SiteURL, "/")

	return &Service{
		provider:    provider,
		codec:       codec,
		revocations: revocations,
		settings:    settings,
	}, nil
}

// CreateCheckout asks the provider for a checkout session and returns the
// provider's checkout URL. The intent is stored in the session metadata, which
// is the only copy trusted when the buyer returns.
func (s *Service) CreateCheckout(ctx context.Context, intent Intent) (string, error) {
	if err := ValidateReturnPath(intent.ReturnPath); err != nil {
		return "", err
	}
	tier, ok := s.settings.Tiers[intent.Tier]
	if !ok {
		return "", errs.Wrapf(errs.ErrUnknownTier, "tier %q", intent.Tier)
	}
	pool := strings.TrimSpace(intent.Pool)
	if err := ValidatePool(pool); err != nil {
		return "", err
	}

	minutes := tier.Minutes
	if minutes <= 0 {
		minutes = defaultPassMinutes
	}

	params := SessionParams{
		Mode:       tier.Mode,
		PriceID:    tier.PriceID,
		SuccessURL: s.successURL(tier.Name, pool, intent.ReturnPath),
		CancelURL:  s.settings.SiteURL + s.settings.CancelPath + "?canceled=1",
		Metadata: map[string]string{
			MetaTier:    tier.Name,
			MetaPool:    pool,
			MetaNext:    intent.ReturnPath,
			MetaScope:   string(pass.PoolScope(pool)),
			MetaMinutes: strconv.Itoa(minutes),
		},
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()

	session, err := s.provider.CreateSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrCheckoutCreationFailed, err)
	}
	if session == nil || session.URL == "" {
		return "", fmt.Errorf("%w: provider returned no checkout URL", errs.ErrCheckoutCreationFailed)
	}
	return session.URL, nil
}

// successURL echoes tier, pool and return path for the landing page. These
// copies are for routing only; CompleteCheckout never reads them.
func (s *Service) successURL(tier, pool, returnPath string) string {
	echo := url.Values{}
	echo.Set(MetaTier, tier)
	echo.Set(MetaPool, pool)
	echo.Set(MetaNext, returnPath)
	return fmt.Sprintf("%s%s?session_id=%s&%s", s.settings.SiteURL, s.settings.CallbackPath, sessionIDPlaceholder, echo.Encode())
}

// CompleteCheckout re-verifies a session with the provider and, only when it
// is paid, mints a pass. It is safe to call repeatedly for the same session;
// every call asks the provider again.
//
// On ErrNotPaid the returned Completion carries the session mode and status.
func (s *Service) CompleteCheckout(ctx context.Context, sessionID string) (*Completion, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errs.ErrMissingSession
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.ProviderTimeout)
	defer cancel()

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		log.Err(err).Str("session_id", sessionID).Msg("Checkout: failed to retrieve session")
		return nil, errs.ErrProviderUnreachable
	}

	completion := &Completion{
		SessionID:     sessionID,
		Mode:          session.Mode,
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
	}
	if !session.Paid() {
		return completion, errs.ErrNotPaid
	}

	meta := session.Metadata
	completion.Tier = meta[MetaTier]
	completion.Pool = meta[MetaPool]
	completion.ReturnPath = meta[MetaNext]
	if ValidateReturnPath(completion.ReturnPath) != nil {
		completion.ReturnPath = fallbackReturnPath
	}

	scope := pass.Scope(meta[MetaScope])
	if scope == "" {
		scope = pass.PoolScope(completion.Pool)
	}
	minutes, err := strconv.Atoi(meta[MetaMinutes])
	if err != nil || minutes <= 0 {
		minutes = s.defaultMinutes(completion.Tier)
	}

	completion.Lifetime = time.Duration(minutes) * time.Minute
	completion.Claim = pass.NewAccessClaim(sessionID, scope, s.codec.Now(), completion.Lifetime)
	completion.Token, err = s.codec.Mint(completion.Claim)
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteCheckout] failed to mint pass")
	}

	if s.revocations != nil {
		if err := s.revocations.Record(sessionID, completion.Claim); err != nil {
			log.Err(err).Str("session_id", sessionID).Msg("Checkout: failed to record pass")
		}
	}
	return completion, nil
}

func (s *Service) defaultMinutes(tierName string) int {
	if tier, ok := s.settings.Tiers[tierName]; ok && tier.Minutes > 0 {
		return tier.Minutes
	}
	return defaultPassMinutes
}
