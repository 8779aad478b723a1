package server

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/rs/zerolog"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
	"github.com/JoshuaLakeSexton/Reeflux/internal/metrics"
)

// Failure reasons shown on the success landing page.
const (
	reasonMissingSession      = "missing_session"
	reasonProviderUnreachable = "provider_unreachable"
	reasonNotPaid             = "not_paid"
	reasonServerError         = "server_error"
)

const unknownTierLabel = "unknown"

// CheckoutHandler starts a checkout and answers with the provider URL the
// browser should navigate to.
func (s *Server) CheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var intent checkout.Intent
		if err := decodeJSONBody(w, r, &intent); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		tier := s.tierLabel(intent.Tier)
		checkoutURL, err := s.checkout.CreateCheckout(r.Context(), intent)
		switch {
		case err == nil:
			metrics.CheckoutCreated(tier, "ok")
			writeJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
		case errs.Is(err, errs.ErrInvalidReturnPath):
			metrics.CheckoutCreated(tier, "invalid_return_path")
			writeJSONError(w, "Invalid redirect path", http.StatusBadRequest)
		case errs.Is(err, errs.ErrUnknownTier):
			metrics.CheckoutCreated(tier, "unknown_tier")
			writeJSONError(w, "Unknown tier", http.StatusBadRequest)
		case errs.Is(err, errs.ErrInvalidRequest):
			metrics.CheckoutCreated(tier, "invalid_request")
			writeJSONError(w, "Invalid pool", http.StatusBadRequest)
		default:
			metrics.CheckoutCreated(tier, "provider_error")
			zerolog.Ctx(r.Context()).Err(err).Str("tier", intent.Tier).Msg("Checkout: session creation failed")
			writeJSONError(w, "Checkout failed", http.StatusBadGateway)
		}
	}
}

// tierLabel keeps metric labels to the configured tiers.
func (s *Server) tierLabel(name string) string {
	if slices.Contains(s.config.GetTiers(), name) {
		return name
	}
	return unknownTierLabel
}

// SuccessHandler is where the payment provider returns the buyer. It verifies
// the session with the provider, sets the pass cookie when payment is
// confirmed and redirects to the success landing page either way.
func (s *Server) SuccessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		completion, err := s.checkout.CompleteCheckout(r.Context(), r.URL.Query().Get("session_id"))
		if err != nil {
			s.redirectCheckoutFailure(w, r, completion, err)
			return
		}

		s.SetPassCookie(w, completion.Token, completion.Lifetime)
		metrics.CheckoutCompleted("ok")
		zerolog.Ctx(r.Context()).Info().
			Str("session_id", completion.SessionID).
			Str("scope", string(completion.Claim.Scope)).
			Time("expires_at", completion.Claim.Expiry()).
			Msg("Checkout: pass issued")

		query := url.Values{}
		query.Set("ok", "1")
		query.Set("next", completion.ReturnPath)
		query.Set("tier", completion.Tier)
		query.Set("pool", completion.Pool)
		http.Redirect(w, r, s.config.GetSuccessPath()+"?"+query.Encode(), http.StatusFound)
	}
}

func (s *Server) redirectCheckoutFailure(w http.ResponseWriter, r *http.Request, completion *checkout.Completion, err error) {
	query := url.Values{}
	query.Set("ok", "0")

	switch {
	case errs.Is(err, errs.ErrMissingSession):
		query.Set("reason", reasonMissingSession)
	case errs.Is(err, errs.ErrProviderUnreachable):
		query.Set("reason", reasonProviderUnreachable)
	case errs.Is(err, errs.ErrNotPaid):
		query.Set("reason", reasonNotPaid)
		if completion != nil {
			query.Set("mode", string(completion.Mode))
			query.Set("status", completion.Status)
		}
	default:
		zerolog.Ctx(r.Context()).Err(err).Msg("Checkout: completion failed")
		query.Set("reason", reasonServerError)
	}

	metrics.CheckoutCompleted(query.Get("reason"))
	http.Redirect(w, r, s.config.GetSuccessPath()+"?"+query.Encode(), http.StatusFound)
}
