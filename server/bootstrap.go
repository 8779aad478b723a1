package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
	"github.com/JoshuaLakeSexton/Reeflux/checkout/stripeprovider"
	"github.com/JoshuaLakeSexton/Reeflux/internal/config"
	"github.com/JoshuaLakeSexton/Reeflux/pass"
	"github.com/JoshuaLakeSexton/Reeflux/presence"
	"github.com/JoshuaLakeSexton/Reeflux/presence/redisstore"
)

// checkoutTierModes fixes how each sellable tier is charged.
var checkoutTierModes = map[string]checkout.Mode{
	"single": checkout.ModePayment,
	"drift":  checkout.ModeSubscription,
}

// Bootstrap validates the configuration and wires every service the server
// needs. The returned cleanup releases external connections.
func Bootstrap(ctx context.Context, c config.Config) (*Server, func(), error) {
	if err := config.Validate(c); err != nil {
		return nil, nil, err
	}

	codec, err := pass.NewCodec(c.GetPassSigningSecret())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pass codec: %w", err)
	}
	revocations := pass.NewInMemoryRevocationList()

	provider := stripeprovider.New(c.GetStripeSecretKey(), c.GetProviderTimeout())
	checkoutService, err := checkout.NewService(provider, codec, revocations, CheckoutSettings(c))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkout service: %w", err)
	}

	cleanup := func() {}
	var store presence.Store
	if redisURL := c.GetRedisURL(); redisURL != "" {
		redisStore, err := redisstore.New(redisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create presence store: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisStore.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("Bootstrap: presence store unreachable, heartbeats will report degraded")
		}
		cancel()
		store = redisStore
		cleanup = func() {
			if err := redisStore.Close(); err != nil {
				log.Err(err).Msg("Failed to close presence store")
			}
		}
	} else {
		log.Warn().Msg("Bootstrap: no presence store configured, heartbeats will report degraded")
	}

	go cleanupRevocations(ctx, revocations, 10*time.Minute)

	s, err := New(c, Services{
		Checkout: checkoutService,
		Verifier: pass.NewVerifier(codec, revocations),
		Presence: presence.NewService(store, c.GetSessionTTL(), c.GetActiveWindow()),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

// CheckoutSettings maps configuration onto checkout settings.
func CheckoutSettings(c config.Config) checkout.Settings {
	tiers := make(map[string]checkout.Tier, len(c.GetTiers()))
	for _, name := range c.GetTiers() {
		mode, ok := checkoutTierModes[name]
		if !ok {
			mode = checkout.ModePayment
		}
		tiers[name] = checkout.Tier{
			Name:    name,
			PriceID: c.GetPriceID(name),
			Mode:    mode,
			Minutes: c.GetDefaultPassMinutes(),
		}
	}
	return checkout.Settings{
		SiteURL:         c.GetSiteURL(),
		CallbackPath:    RouteSuccess,
		CancelPath:      c.GetCancelPath(),
		Tiers:           tiers,
		ProviderTimeout: c.GetProviderTimeout(),
	}
}

func cleanupRevocations(ctx context.Context, revocations pass.RevocationList, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			revocations.Cleanup()
		}
	}
}
