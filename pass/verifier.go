package pass

import (
	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
)

// Reason is the coarse, client-visible explanation for a denied pass.
type Reason string

const (
	ReasonNoPass       Reason = "no_pass"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonExpired      Reason = "expired"
	ReasonWrongScope   Reason = "wrong_scope"
)

// ReasonFor maps a verification error to its client-visible reason.
// Anything unrecognised is reported as an invalid token.
func ReasonFor(err error) Reason {
	if errs.Is(err, errs.ErrTokenExpired) {
		return ReasonExpired
	}
	return ReasonInvalidToken
}

// AccessResult is the answer to "may this pass holder see the gated content?"
type AccessResult struct {
	Allowed   bool   `json:"allowed"`
	Scope     Scope  `json:"scope,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	Reason    Reason `json:"reason,omitempty"`
}

// Verifier answers access checks for pass tokens. It has no side effects and
// is safe for concurrent use.
type Verifier struct {
	codec       *Codec
	revocations RevocationList
}

func NewVerifier(codec *Codec, revocations RevocationList) *Verifier {
	return &Verifier{
		codec:       codec,
		revocations: revocations,
	}
}

// CheckAccess verifies a pass token. An empty token is the ordinary
// unauthenticated state, not an error. When pool is set the claim's scope
// must also cover that pool.
func (v *Verifier) CheckAccess(token, pool string) AccessResult {
	if token == "" {
		return AccessResult{Reason: ReasonNoPass}
	}

	claim, err := v.codec.Verify(token)
	if err != nil {
		return AccessResult{Reason: ReasonFor(err)}
	}
	if v.revocations != nil && v.revocations.IsRevoked(claim.PurchaseID) {
		return AccessResult{Reason: ReasonFor(errs.ErrTokenRevoked)}
	}
	if !claim.Scope.Allows(pool) {
		return AccessResult{Reason: ReasonWrongScope}
	}

	return AccessResult{
		Allowed:   true,
		Scope:     claim.Scope,
		ExpiresAt: claim.ExpiresAt,
	}
}
